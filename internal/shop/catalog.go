package shop

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/internal/metrics"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/pkg/model"
)

// ProductInput is the body of a create request. Images are base64 data URIs.
type ProductInput struct {
	Name        string   `json:"name" schema:"name" validate:"required,max=200"`
	Description string   `json:"description" schema:"description" validate:"required"`
	Price       float64  `json:"price" schema:"price" validate:"gte=0,lte=99999999"`
	Category    string   `json:"category" schema:"category" validate:"required"`
	Stock       int      `json:"stock" schema:"stock" validate:"gte=0,lte=9999"`
	Images      []string `json:"images" schema:"images"`
}

// ProductPatch is the body of an update request. Nil fields are unchanged.
// Images lists the desired image set: URLs already on the product are kept,
// anything else is uploaded, and product images not listed are destroyed.
type ProductPatch struct {
	Name        *string   `json:"name" schema:"name" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" schema:"description" validate:"omitempty,min=1"`
	Price       *float64  `json:"price" schema:"price" validate:"omitempty,gte=0,lte=99999999"`
	Category    *string   `json:"category" schema:"category" validate:"omitempty,min=1"`
	Stock       *int      `json:"stock" schema:"stock" validate:"omitempty,gte=0,lte=9999"`
	Images      *[]string `json:"images" schema:"-"`
}

// ProductListing is one page of the public catalog.
type ProductListing struct {
	Products              []*types.Product `json:"products"`
	ProductsCount         int64            `json:"productsCount"`
	ResultPerPage         int              `json:"resultPerPage"`
	FilteredProductsCount int64            `json:"filteredProductsCount"`
}

type Catalog struct {
	products types.ProductStore
	images   ImageHost
	resource query.Resource
	logger   *slog.Logger
}

func NewCatalog(products types.ProductStore, images ImageHost, cfg Config) *Catalog {
	return &Catalog{
		products: products,
		images:   images,
		resource: query.ProductResource(cfg.ProductsPerPage),
		logger:   slog.Default().With("component", "catalog"),
	}
}

// List runs the query builder over req and returns the page with its counts.
func (c *Catalog) List(ctx context.Context, req query.Request) (*ProductListing, error) {
	constraint := query.Build(c.resource, req)
	out := &ProductListing{ResultPerPage: c.resource.PageSize}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.products.EstimatedCount(gctx)
		out.ProductsCount = n
		return err
	})
	g.Go(func() error {
		n, err := c.products.Count(gctx, constraint.Filters)
		out.FilteredProductsCount = n
		return err
	})
	g.Go(func() error {
		items, err := c.products.List(gctx, constraint)
		out.Products = nonNil(items)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*types.Product, error) {
	return c.products.Get(ctx, id)
}

// All returns every product for the admin dashboard.
func (c *Catalog) All(ctx context.Context) ([]*types.Product, error) {
	items, err := c.products.All(ctx)
	return nonNil(items), err
}

func (c *Catalog) Create(ctx context.Context, owner *types.User, in ProductInput) (*types.Product, error) {
	images, err := c.images.UploadAll(ctx, imagehost.FolderProducts, in.Images)
	metrics.ImageOperations.WithLabelValues("upload", metrics.Result(err)).Add(float64(len(in.Images)))
	if err != nil {
		return nil, err
	}

	p := &types.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Images:      nonNil(images),
		User:        owner.ID,
	}
	if err := c.products.Create(ctx, p); err != nil {
		c.discard(ctx, images)
		return nil, err
	}
	c.logger.Info("Product created", "product_id", p.ID.Hex(), "images", len(images))
	return p, nil
}

// Update applies patch. New images are uploaded before the write and images
// dropped from the product are destroyed after it.
func (c *Catalog) Update(ctx context.Context, id string, patch ProductPatch) (*types.Product, error) {
	current, err := c.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := types.ProductUpdate{
		Name:        patch.Name,
		Description: patch.Description,
		Price:       patch.Price,
		Category:    patch.Category,
		Stock:       patch.Stock,
	}

	var uploaded []types.Image
	var dropped []string
	if patch.Images != nil {
		keep := make(map[string]bool)
		var toUpload []string
		for _, img := range *patch.Images {
			if strings.HasPrefix(img, "http") {
				keep[img] = true
			} else {
				toUpload = append(toUpload, img)
			}
		}

		var kept []types.Image
		for _, img := range current.Images {
			if keep[img.URL] {
				kept = append(kept, img)
			} else if img.PublicID != "" {
				dropped = append(dropped, img.PublicID)
			}
		}

		uploaded, err = c.images.UploadAll(ctx, imagehost.FolderProducts, toUpload)
		metrics.ImageOperations.WithLabelValues("upload", metrics.Result(err)).Add(float64(len(toUpload)))
		if err != nil {
			return nil, err
		}
		upd.Images = append(kept, uploaded...)
		upd.SetImages = true
	}

	p, err := c.products.Update(ctx, id, upd)
	if err != nil {
		c.discard(ctx, uploaded)
		return nil, err
	}

	if len(dropped) > 0 {
		err := c.images.DestroyAll(ctx, dropped)
		metrics.ImageOperations.WithLabelValues("destroy", metrics.Result(err)).Add(float64(len(dropped)))
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Delete destroys the product images, then the product. If any image cannot
// be destroyed the product is kept.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	p, err := c.products.Get(ctx, id)
	if err != nil {
		return err
	}
	ids := publicIDs(p.Images)
	err = c.images.DestroyAll(ctx, ids)
	metrics.ImageOperations.WithLabelValues("destroy", metrics.Result(err)).Add(float64(len(ids)))
	if err != nil {
		return err
	}
	return c.products.Delete(ctx, id)
}

// Restock overwrites the stock of every product.
func (c *Catalog) Restock(ctx context.Context, stock int) (int64, error) {
	if stock < 0 {
		return 0, model.Errorf(model.ErrValidation, "stock cannot be negative")
	}
	return c.products.SetAllStock(ctx, stock)
}

// discard removes images uploaded for a write that did not happen.
func (c *Catalog) discard(ctx context.Context, images []types.Image) {
	if len(images) == 0 {
		return
	}
	if err := c.images.DestroyAll(context.WithoutCancel(ctx), publicIDs(images)); err != nil {
		c.logger.Warn("Failed to remove orphaned images", "count", len(images), "error", err)
	}
}
