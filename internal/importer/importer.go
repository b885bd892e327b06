// Package importer loads catalog products from a CSV or YAML file. It is the
// only writer of the products collection.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

// Result summarizes one import run. A bad row is recorded and skipped; it
// does not abort the run.
type Result struct {
	Imported int
	Errors   []string
}

type Importer struct {
	products store.Products
	now      func() time.Time
}

func New(products store.Products) *Importer {
	return &Importer{products: products, now: time.Now}
}

// ImportFile picks the decoder from the file extension: .csv, .yaml or .yml.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return im.ImportCSV(ctx, f)
	case ".yaml", ".yml":
		return im.ImportYAML(ctx, f)
	default:
		return nil, fmt.Errorf("unsupported product file %q: want .csv, .yaml or .yml", path)
	}
}

// ImportCSV expects a header row naming the columns product_id, name,
// description, price, image_url, stock and category. A blank product_id is
// replaced by a slug of the name.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	res := &Result{}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		p := models.Product{
			ID:          field(row, "product_id"),
			Name:        field(row, "name"),
			Description: field(row, "description"),
			ImageURL:    field(row, "image_url"),
			Category:    field(row, "category"),
		}
		if p.Price, err = parseFloat(field(row, "price")); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d (%s): price: %v", line, p.Name, err))
			continue
		}
		if p.Stock, err = parseInt(field(row, "stock")); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d (%s): stock: %v", line, p.Name, err))
			continue
		}
		im.put(ctx, res, p, fmt.Sprintf("line %d", line))
	}
	return res, nil
}

func (im *Importer) ImportYAML(ctx context.Context, r io.Reader) (*Result, error) {
	var products []models.Product
	if err := yaml.NewDecoder(r).Decode(&products); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	res := &Result{}
	for i, p := range products {
		im.put(ctx, res, p, fmt.Sprintf("entry %d", i+1))
	}
	return res, nil
}

func (im *Importer) put(ctx context.Context, res *Result, p models.Product, where string) {
	if p.ID == "" && p.Name != "" {
		if p.ID = slug(p.Name); p.ID == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s (%s): name has no letters or digits to derive an id from, set product_id", where, p.Name))
			return
		}
	}
	if err := validate(p); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s (%s): %v", where, p.Name, err))
		return
	}
	p.CreatedAt = im.now().UTC().Truncate(time.Millisecond)
	if err := im.products.Put(ctx, &p); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s (%s): %v", where, p.Name, err))
		return
	}
	res.Imported++
}

func validate(p models.Product) error {
	switch {
	case p.ID == "":
		return errors.New("product needs an id or a name")
	case p.Name == "":
		return errors.New("name is required")
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return errors.New("price must be a finite number")
	case p.Price < 0:
		return errors.New("price must be non-negative")
	case p.Stock < 0:
		return errors.New("stock must be non-negative")
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
