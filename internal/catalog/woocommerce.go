package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

const wooPageSize = 100

// WooSource reads published products from a WooCommerce store's REST API,
// paginating through the product listing.
type WooSource struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
}

// WooConfig configures a WooSource.
type WooConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// NewWooSource creates an e-commerce product source.
func NewWooSource(cfg WooConfig) (*WooSource, error) {
	if cfg.BaseURL == "" || cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("%w: WooCommerce base URL and credentials are required", core.ErrSourceUnavailable)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &WooSource{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient:     &http.Client{Timeout: t},
	}, nil
}

// wooProduct mirrors the WooCommerce product payload fields the catalog uses.
type wooProduct struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	SKU              string      `json:"sku"`
	Permalink        string      `json:"permalink"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	OnSale           bool        `json:"on_sale"`
	StockStatus      string      `json:"stock_status"`
	ShortDescription string      `json:"short_description"`
	Description      string      `json:"description"`
	Categories       []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Brands []struct {
		Name string `json:"name"`
	} `json:"brands"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
	Attributes []struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	} `json:"attributes"`
	MetaData []struct {
		Key   string      `json:"key"`
		Value interface{} `json:"value"`
	} `json:"meta_data"`
}

// FetchProducts pages through the published product listing and maps every
// product onto the canonical schema. Products without a name are dropped.
func (s *WooSource) FetchProducts(ctx context.Context) ([]core.ProductRecord, error) {
	var records []core.ProductRecord

	for page := 1; ; page++ {
		products, err := s.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			rec, ok := recordFromWooProduct(p)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
		if len(products) < wooPageSize {
			break
		}
	}

	logger.SyncInfo("Fetched %d products from WooCommerce", len(records))
	return records, nil
}

// fetchPage requests one page of the product listing.
func (s *WooSource) fetchPage(ctx context.Context, page int) ([]wooProduct, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(wooPageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("status", "publish")
	q.Set("consumer_key", s.consumerKey)
	q.Set("consumer_secret", s.consumerSecret)
	endpoint := s.baseURL + "/wp-json/wc/v3/products?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: WooCommerce returned %s: %s", core.ErrSourceUnavailable, resp.Status, truncateBody(body))
	}

	var products []wooProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: failed to decode WooCommerce response: %v", core.ErrSourceUnavailable, err)
	}
	return products, nil
}

// recordFromWooProduct flattens the nested WooCommerce payload onto the
// canonical schema.
func recordFromWooProduct(p wooProduct) (core.ProductRecord, bool) {
	if strings.TrimSpace(p.Name) == "" {
		return core.ProductRecord{}, false
	}

	rec := core.ProductRecord{
		ID:               p.ID.String(),
		Name:             strings.TrimSpace(p.Name),
		SKU:              p.SKU,
		RegularPrice:     p.RegularPrice,
		ShortDescription: StripHTML(p.ShortDescription),
		Description:      StripHTML(p.Description),
		URL:              p.Permalink,
		StockStatus:      p.StockStatus,
	}
	if p.OnSale && p.SalePrice != "" {
		rec.SalePrice = p.SalePrice
	}

	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	rec.Category = strings.Join(names, ", ")

	brands := make([]string, 0, len(p.Brands))
	for _, b := range p.Brands {
		if b.Name != "" {
			brands = append(brands, b.Name)
		}
	}
	if len(brands) == 0 {
		// Some stores expose the brand only through plugin metadata.
		for _, meta := range p.MetaData {
			if strings.Contains(strings.ToLower(meta.Key), "brand") {
				if v, ok := meta.Value.(string); ok && v != "" {
					brands = append(brands, v)
				}
			}
		}
	}
	rec.Brand = strings.Join(brands, ", ")

	if len(p.Images) > 0 {
		rec.ImageURL = p.Images[0].Src
	}

	for _, attr := range p.Attributes {
		if len(rec.Attributes) >= core.MaxAttributes {
			break
		}
		opts := strings.Join(attr.Options, ", ")
		if attr.Name != "" && opts != "" {
			rec.Attributes = append(rec.Attributes, attr.Name+": "+opts)
		}
	}

	return rec, true
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
