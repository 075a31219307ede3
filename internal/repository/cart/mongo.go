package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxWriteAttempts bounds retries when a concurrent writer bumped the version.
const maxWriteAttempts = 5

var errStaleCart = errors.New("cart modified concurrently")

type cartDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    string               `bson:"user_id"`
	Items     []cartItemDocument   `bson:"items"`
	Total     primitive.Decimal128 `bson:"total"`
	Version   int64                `bson:"version"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type cartItemDocument struct {
	ProductID string               `bson:"product_id"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	AddedAt   time.Time            `bson:"added_at"`
}

type mongoRepo struct {
	collection *mongo.Collection
	logger     *log.Logger
}

// NewMongo returns a Repository keeping one document per user in the carts
// collection, creating its indexes first.
func NewMongo(ctx context.Context, db *mongo.Database, logger *log.Logger) (Repository, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	repo := &mongoRepo{collection: db.Collection("carts"), logger: logger}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *mongoRepo) createIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}
	return nil
}

func (m *mongoRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	doc, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (m *mongoRepo) AddLine(ctx context.Context, userID string, line domain.CartLine) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(line.Quantity); err != nil {
		return nil, err
	}
	return m.modify(ctx, userID, true, func(c *domain.Cart) error {
		if i := c.Line(line.ProductID); i >= 0 {
			if c.Lines[i].Quantity > domain.MaxLineQuantity-line.Quantity {
				return domain.NewValidationError("quantity must be at most %d", domain.MaxLineQuantity)
			}
			c.Lines[i].Quantity += line.Quantity
			return nil
		}
		if line.AddedAt.IsZero() {
			line.AddedAt = time.Now().UTC()
		}
		line.Product = nil
		c.Lines = append(c.Lines, line)
		return nil
	})
}

func (m *mongoRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return m.modify(ctx, userID, false, func(c *domain.Cart) error {
		i := c.Line(productID)
		if i < 0 {
			return domain.ErrNotFound
		}
		c.Lines[i].Quantity = quantity
		return nil
	})
}

func (m *mongoRepo) RemoveLine(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return m.modify(ctx, userID, false, func(c *domain.Cart) error {
		i := c.Line(productID)
		if i < 0 {
			return domain.ErrNotFound
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	})
}

func (m *mongoRepo) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := m.modify(ctx, userID, false, func(c *domain.Cart) error {
		c.Lines = []domain.CartLine{}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart(userID), nil
	}
	return cart, err
}

func (m *mongoRepo) RemoveOrdered(ctx context.Context, userID string, ordered []domain.CartLine) (*domain.Cart, error) {
	cart, err := m.modify(ctx, userID, false, func(c *domain.Cart) error {
		for _, o := range ordered {
			i := c.Line(o.ProductID)
			if i < 0 {
				continue
			}
			if c.Lines[i].Quantity <= o.Quantity {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
				continue
			}
			c.Lines[i].Quantity -= o.Quantity
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart(userID), nil
	}
	return cart, err
}

// modify applies fn to the stored cart and writes it back guarded by the
// document version, retrying when another writer got there first.
func (m *mongoRepo) modify(ctx context.Context, userID string, create bool, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		doc, err := m.load(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) && create {
			doc = &cartDocument{UserID: userID, CreatedAt: time.Now().UTC()}
		} else if err != nil {
			return nil, err
		}

		cart, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()
		cart.UpdatedAt = time.Now().UTC()

		next, err := fromDomain(cart)
		if err != nil {
			return nil, err
		}
		next.ID = doc.ID
		next.CreatedAt = doc.CreatedAt
		next.Version = doc.Version + 1

		err = m.write(ctx, doc, next)
		if errors.Is(err, errStaleCart) {
			m.logger.Printf("cart mongo: retry user=%s attempt=%d", userID, attempt+1)
			continue
		}
		if err != nil {
			m.logger.Printf("cart mongo: write user=%s error=%v", userID, err)
			return nil, err
		}
		return next.toDomain()
	}
	return nil, domain.ErrConflict
}

func (m *mongoRepo) write(ctx context.Context, prev, next *cartDocument) error {
	if prev.ID.IsZero() {
		res, err := m.collection.InsertOne(ctx, next)
		if mongo.IsDuplicateKeyError(err) {
			return errStaleCart
		}
		if err != nil {
			return err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			next.ID = id
		}
		return nil
	}

	filter := bson.M{"_id": prev.ID, "version": prev.Version}
	res, err := m.collection.ReplaceOne(ctx, filter, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errStaleCart
	}
	return nil
}

func (m *mongoRepo) load(ctx context.Context, userID string) (*cartDocument, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &doc, nil
}

func (d *cartDocument) toDomain() (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Lines:     make([]domain.CartLine, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.ID.IsZero() {
		cart.ID = ""
	}
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	cart.Total = total
	for _, item := range d.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
			AddedAt:   item.AddedAt,
		})
	}
	return cart, nil
}

func fromDomain(c *domain.Cart) (*cartDocument, error) {
	total, err := toDecimal128(c.Total)
	if err != nil {
		return nil, err
	}
	doc := &cartDocument{
		UserID:    c.UserID,
		Items:     make([]cartItemDocument, 0, len(c.Lines)),
		Total:     total,
		UpdatedAt: c.UpdatedAt,
	}
	for _, l := range c.Lines {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, cartItemDocument{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     price,
			AddedAt:   l.AddedAt,
		})
	}
	return doc, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}
