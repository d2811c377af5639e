package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// associationCategories are the categories linked through product_attributes.
// Manufacturing origin lives on the product row instead.
var associationCategories = []string{
	types.CategoryMaterial,
	types.CategoryFilling,
	types.CategoryCare,
	types.CategoryCertification,
}

const productColumns = `product_id, article_number, title, image_path, size_text, age_text,
	min_age, origin_id, created_at, updated_at`

// ProductStore persists products keyed by article number.
type ProductStore struct {
	backend *Backend
}

// Upsert creates the product for in.ArticleNumber or overwrites its scalar
// fields, then links its attributes. Links are only added unless the backend
// was attached with PruneStaleAttributes, in which case associations absent
// from in are removed. created reports whether the row is new.
func (s *ProductStore) Upsert(ctx context.Context, in types.ProductInput) (id string, created bool, err error) {
	article := strings.TrimSpace(in.ArticleNumber)
	if types.IsMissing(article) {
		return "", false, types.ErrMissingArticleNumber
	}

	ctx, span := tracer.Start(ctx, "ProductStore.Upsert",
		trace.WithAttributes(attribute.String("catalog.article_number", article)))
	defer span.End()

	err = s.backend.write(ctx, "upsert product", func(tx *sql.Tx) error {
		var werr error
		id, created, werr = s.backend.upsertProduct(ctx, tx, article, in)
		if werr != nil {
			return werr
		}
		return s.backend.linkAttributes(ctx, tx, id, in)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return "", false, err
	}
	span.SetAttributes(attribute.Bool("catalog.created", created))
	return id, created, nil
}

// Get retrieves the product with the given article number.
func (s *ProductStore) Get(ctx context.Context, articleNumber string) (*types.Product, error) {
	if strings.TrimSpace(articleNumber) == "" {
		return nil, types.ErrMissingArticleNumber
	}
	var p *types.Product
	err := s.backend.read(func(q querier) error {
		row := q.QueryRowContext(ctx,
			"SELECT "+productColumns+" FROM products WHERE article_number = ?", strings.TrimSpace(articleNumber))
		var herr error
		p, herr = hydrateProduct(row)
		if errors.Is(herr, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if herr != nil {
			return &types.StorageError{Op: "get product", Err: herr}
		}
		return nil
	})
	return p, err
}

// List returns every product ordered by article number.
func (s *ProductStore) List(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	err := s.backend.read(func(q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY article_number")
		if err != nil {
			return &types.StorageError{Op: "list products", Err: err}
		}
		defer rows.Close()
		for rows.Next() {
			p, err := hydrateProduct(rows)
			if err != nil {
				return &types.StorageError{Op: "list products", Err: err}
			}
			products = append(products, *p)
		}
		if err := rows.Err(); err != nil {
			return &types.StorageError{Op: "list products", Err: err}
		}
		return nil
	})
	return products, err
}

// Attributes returns the attributes linked to productID ordered by category
// and value.
func (s *ProductStore) Attributes(ctx context.Context, productID string) ([]types.Attribute, error) {
	if productID == "" {
		return nil, types.ErrInvalidID
	}
	var attrs []types.Attribute
	err := s.backend.read(func(q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT a.attribute_id, a.category, a.value, a.created_at
			 FROM attributes a JOIN product_attributes pa ON pa.attribute_id = a.attribute_id
			 WHERE pa.product_id = ?
			 ORDER BY a.category, a.value`, productID)
		if err != nil {
			return &types.StorageError{Op: "product attributes", Err: err}
		}
		attrs, err = scanAttributes(rows)
		if err != nil {
			return &types.StorageError{Op: "product attributes", Err: err}
		}
		return nil
	})
	return attrs, err
}

func (b *Backend) upsertProduct(ctx context.Context, tx *sql.Tx, article string, in types.ProductInput) (string, bool, error) {
	originID, hasOrigin, err := b.resolveAttribute(ctx, tx, types.CategoryOrigin, in.Origin)
	if err != nil {
		return "", false, err
	}
	var origin, minAge any
	if hasOrigin {
		origin = originID
	}
	if in.MinAge != nil {
		minAge = *in.MinAge
	}

	now := b.timestamp()
	newID := generateUUID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (product_id, article_number, title, image_path, size_text, age_text,
			min_age, origin_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (article_number) DO UPDATE SET
			title = excluded.title,
			image_path = excluded.image_path,
			size_text = excluded.size_text,
			age_text = excluded.age_text,
			min_age = excluded.min_age,
			origin_id = excluded.origin_id,
			updated_at = excluded.updated_at`,
		newID, article, in.Title, in.ImagePath, in.SizeText, in.AgeText, minAge, origin, now, now)
	if err != nil {
		return "", false, &types.StorageError{Op: "upsert product", Err: err}
	}

	var id string
	if err := tx.QueryRowContext(ctx,
		"SELECT product_id FROM products WHERE article_number = ?", article).Scan(&id); err != nil {
		return "", false, &types.StorageError{Op: "upsert product", Err: fmt.Errorf("reading id: %w", err)}
	}
	created := id == newID
	if created {
		b.logger.Debug("product created", "article_number", article, "product_id", id)
	}
	return id, created, nil
}

// linkAttributes resolves every association value of in and links it to the
// product. Missing values produce no link.
func (b *Backend) linkAttributes(ctx context.Context, tx *sql.Tx, productID string, in types.ProductInput) error {
	type pair struct{ category, value string }
	pairs := make([]pair, 0, len(in.Materials)+3)
	for _, m := range in.Materials {
		pairs = append(pairs, pair{types.CategoryMaterial, m})
	}
	pairs = append(pairs,
		pair{types.CategoryFilling, in.Filling},
		pair{types.CategoryCare, in.Care},
		pair{types.CategoryCertification, in.Certification},
	)

	linked := make([]string, 0, len(pairs))
	for _, p := range pairs {
		attrID, ok, err := b.resolveAttribute(ctx, tx, p.category, p.value)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_attributes (product_id, attribute_id) VALUES (?, ?)
			 ON CONFLICT (product_id, attribute_id) DO NOTHING`,
			productID, attrID); err != nil {
			return &types.StorageError{Op: "link attribute", Err: err}
		}
		linked = append(linked, attrID)
	}

	if b.config.Sync.PruneStaleAttributes {
		return pruneAttributes(ctx, tx, productID, linked)
	}
	return nil
}

// pruneAttributes removes links of productID in the association categories
// that are not in keep.
func pruneAttributes(ctx context.Context, tx *sql.Tx, productID string, keep []string) error {
	args := []any{productID}
	var q strings.Builder
	q.WriteString(`DELETE FROM product_attributes WHERE product_id = ?
		AND attribute_id IN (SELECT attribute_id FROM attributes WHERE category IN (`)
	for i, c := range associationCategories {
		if i > 0 {
			q.WriteString(", ")
		}
		q.WriteString("?")
		args = append(args, c)
	}
	q.WriteString("))")
	if len(keep) > 0 {
		q.WriteString(" AND attribute_id NOT IN (")
		for i, id := range keep {
			if i > 0 {
				q.WriteString(", ")
			}
			q.WriteString("?")
			args = append(args, id)
		}
		q.WriteString(")")
	}
	if _, err := tx.ExecContext(ctx, q.String(), args...); err != nil {
		return &types.StorageError{Op: "prune attributes", Err: err}
	}
	return nil
}

func hydrateProduct(row rowScanner) (*types.Product, error) {
	var p types.Product
	var minAge sql.NullInt64
	var origin sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&p.ProductID, &p.ArticleNumber, &p.Title, &p.ImagePath, &p.SizeText, &p.AgeText,
		&minAge, &origin, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if minAge.Valid {
		v := int(minAge.Int64)
		p.MinAge = &v
	}
	if origin.Valid {
		v := origin.String
		p.OriginID = &v
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
