package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TradeWarden/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market data API.
type AlpacaFetcher struct {
	BaseURL   string
	KeyID     string
	SecretKey string
	Client    *http.Client
}

// NewAlpacaFetcher creates a new data fetcher with optional proxy support.
func NewAlpacaFetcher(baseURL, keyID, secretKey, proxyURL string) *AlpacaFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlpacaFetcher{
		BaseURL:   baseURL,
		KeyID:     keyID,
		SecretKey: secretKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// alpacaTimeframe maps an interval name to the Alpaca timeframe parameter.
func alpacaTimeframe(interval string) string {
	switch interval {
	case "1m":
		return "1Min"
	case "5m":
		return "5Min"
	case "15m":
		return "15Min"
	case "30m":
		return "30Min"
	case "1d":
		return "1Day"
	default: // "1h"
		return "1Hour"
	}
}

// alpacaBar is the JSON bar shape from the Alpaca data API.
type alpacaBar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type alpacaBarsPage struct {
	Bars          []alpacaBar `json:"bars"`
	NextPageToken *string     `json:"next_page_token"`
}

// FetchBars retrieves the bar history for one symbol, following the
// page token until Alpaca reports the window exhausted.
func (f *AlpacaFetcher) FetchBars(symbol, interval string, start, end time.Time) ([]model.Bar, error) {
	var bars []model.Bar
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("timeframe", alpacaTimeframe(interval))
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		q.Set("limit", "10000")
		q.Set("adjustment", "split")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

		page, err := f.fetchPage(endpoint)
		if err != nil {
			return nil, err
		}
		for _, ab := range page.Bars {
			bars = append(bars, model.Bar{
				Time:   ab.Timestamp,
				Open:   ab.Open,
				High:   ab.High,
				Low:    ab.Low,
				Close:  ab.Close,
				Volume: ab.Volume,
			})
		}
		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		pageToken = *page.NextPageToken
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *AlpacaFetcher) fetchPage(endpoint string) (*alpacaBarsPage, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", f.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", f.SecretKey)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpaca fetch bars: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alpaca fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var page alpacaBarsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("alpaca decode bars: %w", err)
	}
	return &page, nil
}
