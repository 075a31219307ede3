package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/exporter"
	productsvc "storefront/internal/service/product"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var productNotFound = errText{notFound: "Product not found"}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    string           `json:"category"`
	Image       string           `json:"image"`
	IsActive    *bool            `json:"isActive"`
}

func (a *api) listProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	res, err := a.deps.ProductSvc.List(c.Request.Context(), productsvc.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *api) listCategories(c *gin.Context) {
	names, err := a.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, names)
}

func (a *api) getProduct(c *gin.Context) {
	id, ok := canonicalID(c.Param("id"))
	if !ok {
		a.fail(c, domain.ErrNotFound, productNotFound)
		return
	}
	p, err := a.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *api) listAllProducts(c *gin.Context) {
	products, err := a.deps.ProductSvc.ListAll(c.Request.Context())
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (a *api) exportProducts(c *gin.Context) {
	products, err := a.deps.ProductSvc.ListAll(c.Request.Context())
	if err != nil {
		a.fail(c, err, errText{})
		return
	}
	var buf bytes.Buffer
	if err := exporter.WriteProducts(&buf, products); err != nil {
		a.fail(c, err, errText{})
		return
	}
	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, exporter.ContentType, buf.Bytes())
}

func (a *api) createProduct(c *gin.Context) {
	in, ok := a.bindProduct(c)
	if !ok {
		return
	}
	p, err := a.deps.ProductSvc.Create(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a *api) updateProduct(c *gin.Context) {
	id, ok := canonicalID(c.Param("id"))
	if !ok {
		a.fail(c, domain.ErrNotFound, productNotFound)
		return
	}
	in, ok := a.bindProduct(c)
	if !ok {
		return
	}
	p, err := a.deps.ProductSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *api) deleteProduct(c *gin.Context) {
	id, ok := canonicalID(c.Param("id"))
	if !ok {
		a.fail(c, domain.ErrNotFound, productNotFound)
		return
	}
	if err := a.deps.ProductSvc.Delete(c.Request.Context(), id); err != nil {
		a.fail(c, err, productNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

// bindProduct reads a product from JSON or a multipart form with an optional
// image file. It writes the error response itself and reports false.
func (a *api) bindProduct(c *gin.Context) (productsvc.Input, bool) {
	var req productRequest
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		parsed, err := productFromForm(c)
		if err != nil {
			a.fail(c, err, errText{})
			return productsvc.Input{}, false
		}
		req = parsed
	default:
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return productsvc.Input{}, false
		}
	}

	image, err := a.saveImage(c)
	if err != nil {
		a.fail(c, err, errText{})
		return productsvc.Input{}, false
	}
	if image != "" {
		req.Image = image
	}

	return productsvc.Input{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
		IsActive:    req.IsActive,
	}, true
}

func productFromForm(c *gin.Context) (productRequest, error) {
	req := productRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Image:       c.PostForm("image"),
	}
	if v := strings.TrimSpace(c.PostForm("price")); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return req, domain.NewValidationError("price must be a number")
		}
		req.Price = &price
	}
	if v := strings.TrimSpace(c.PostForm("stock")); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return req, domain.NewValidationError("stock must be a whole number")
		}
		req.Stock = &stock
	}
	if v := strings.TrimSpace(c.PostForm("isActive")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return req, domain.NewValidationError("isActive must be true or false")
		}
		req.IsActive = &active
	}
	return req, nil
}

// saveImage stores the "image" form file under the upload dir and returns its
// public URL, or "" when no file was sent.
func (a *api) saveImage(c *gin.Context) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}
	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", domain.NewValidationError("invalid image upload")
	}
	base := filepath.Base(file.Filename)
	if !imageExtensions[strings.ToLower(filepath.Ext(base))] {
		return "", domain.NewValidationError("Images only (jpg, jpeg, png, gif, webp)")
	}
	if a.opts.UploadDir == "" {
		return "", errors.New("upload dir not configured")
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)
	if err := c.SaveUploadedFile(file, filepath.Join(a.opts.UploadDir, name)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return a.opts.FileURLHost + "/uploads/" + name, nil
}
