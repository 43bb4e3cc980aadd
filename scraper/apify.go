package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Terminal Apify run states
const (
	runStatusSucceeded = "SUCCEEDED"
	runStatusFailed    = "FAILED"
	runStatusAborted   = "ABORTED"
	runStatusTimedOut  = "TIMED-OUT"
)

// SearchRequest describes one scrape job sent to the places actor.
type SearchRequest struct {
	Query       string
	MaxResults  int
	Language    string
	CountryCode string
}

// Place is a raw result item as the actor returns it.
type Place struct {
	Title            string  `json:"title"`
	Address          string  `json:"address"`
	Phone            string  `json:"phone"`
	PhoneUnformatted string  `json:"phoneUnformatted"`
	Website          string  `json:"website"`
	TotalScore       float64 `json:"totalScore"`
}

// actorInput mirrors the places actor's expected input schema.
type actorInput struct {
	SearchStringsArray        []string `json:"searchStringsArray"`
	MaxCrawledPlacesPerSearch int      `json:"maxCrawledPlacesPerSearch"`
	Language                  string   `json:"language"`
	CountryCode               string   `json:"countryCode"`
	AllPlacesNoSearchAction   string   `json:"allPlacesNoSearchAction"`
}

type runData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type runResponse struct {
	Data runData `json:"data"`
}

// Client talks to the Apify actor API: submit a run, poll it until a
// terminal state, then fetch the dataset items. One Search call is one
// blocking round trip from the caller's point of view.
type Client struct {
	http         *resty.Client
	token        string
	actorID      string
	pollInterval time.Duration
	runTimeout   time.Duration
	logger       *logrus.Entry
}

func NewClient(baseURL, token, actorID string, logger *logrus.Entry) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:         http,
		token:        token,
		actorID:      actorID,
		pollInterval: 3 * time.Second,
		runTimeout:   5 * time.Minute,
		logger:       logger,
	}
}

// SearchPlaces runs the actor synchronously and returns the scraped items.
// The run submission is never retried; every accepted run is billed by the
// provider whether or not we read its results.
func (c *Client) SearchPlaces(ctx context.Context, req SearchRequest) ([]Place, error) {
	input := actorInput{
		SearchStringsArray:        []string{req.Query},
		MaxCrawledPlacesPerSearch: req.MaxResults,
		Language:                  req.Language,
		CountryCode:               req.CountryCode,
	}

	c.logger.WithFields(logrus.Fields{
		"query":       req.Query,
		"max_results": req.MaxResults,
		"country":     req.CountryCode,
	}).Info("Submitting scrape run")

	var submitted runResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetBody(input).
		SetResult(&submitted).
		Post(fmt.Sprintf("/v2/acts/%s/runs", c.actorID))
	if err != nil {
		return nil, fmt.Errorf("submit run: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("submit run: provider returned %s: %s", resp.Status(), resp.String())
	}

	run, err := c.waitForRun(ctx, submitted.Data.ID)
	if err != nil {
		return nil, err
	}

	return c.fetchItems(ctx, run.DefaultDatasetID)
}

func (c *Client) waitForRun(ctx context.Context, runID string) (*runData, error) {
	deadline := time.Now().Add(c.runTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var current runResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("token", c.token).
			SetResult(&current).
			Get(fmt.Sprintf("/v2/actor-runs/%s", runID))
		if err != nil {
			return nil, fmt.Errorf("poll run %s: %w", runID, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("poll run %s: provider returned %s", runID, resp.Status())
		}

		switch current.Data.Status {
		case runStatusSucceeded:
			return &current.Data, nil
		case runStatusFailed, runStatusAborted, runStatusTimedOut:
			return nil, fmt.Errorf("run %s ended with status %s", runID, current.Data.Status)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("run %s did not finish within %s", runID, c.runTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchItems(ctx context.Context, datasetID string) ([]Place, error) {
	var items []Place
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetQueryParam("format", "json").
		SetResult(&items).
		Get(fmt.Sprintf("/v2/datasets/%s/items", datasetID))
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", datasetID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch dataset %s: provider returned %s", datasetID, resp.Status())
	}

	c.logger.WithField("items", len(items)).Info("Scrape run completed")
	return items, nil
}
