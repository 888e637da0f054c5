package ecb

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/akazakov/cashflow-service/internal/config"
)

// rateTTL is how long a fetched rate table stays fresh; the ECB publishes
// the reference rates once per business day.
const rateTTL = 12 * time.Hour

// Client fetches the ECB daily euro foreign exchange reference rates and
// converts amounts between the currencies they cover.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

// NewClient initializes a new ECB rates client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.ECBURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Convert converts an amount between two currencies via their euro
// reference rates.
func (c *Client) Convert(amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rates, err := c.getRates()
	if err != nil {
		return 0, err
	}
	fromRate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("no reference rate for %s", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("no reference rate for %s", to)
	}
	return amount / fromRate * toRate, nil
}

// getRates returns the cached rate table, refreshing it when stale.
func (c *Client) getRates() (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && time.Since(c.fetchedAt) < rateTTL {
		return c.rates, nil
	}

	rates, err := c.fetchRates()
	if err != nil {
		if c.rates != nil {
			c.log.Warnf("Using stale ECB rates from %s: %v", c.fetchedAt.Format("2006-01-02"), err)
			return c.rates, nil
		}
		return nil, err
	}

	c.rates = rates
	c.fetchedAt = time.Now()
	return c.rates, nil
}

// fetchRates downloads and parses the eurofxref-daily XML document.
func (c *Client) fetchRates() (map[string]float64, error) {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	cubes := doc.FindElements("//Cube[@currency]")
	if len(cubes) == 0 {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	rates := map[string]float64{"EUR": 1.0}
	for _, cube := range cubes {
		currency := cube.SelectAttrValue("currency", "")
		rateText := cube.SelectAttrValue("rate", "")
		rate, err := strconv.ParseFloat(rateText, 64)
		if err != nil || currency == "" {
			return nil, fmt.Errorf("malformed rate entry %q=%q", currency, rateText)
		}
		rates[currency] = rate
	}

	c.log.Infof("Fetched %d ECB reference rates", len(rates))
	return rates, nil
}
