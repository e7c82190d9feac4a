package repositories

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"iss-tracker/internal/models"
	"iss-tracker/pkg/logger"
)

const (
	// NASABaseURL is the public ISS OEM J2K ephemeris feed.
	NASABaseURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

	// fetchAttempts bounds feed downloads: the first try plus one retry.
	fetchAttempts = 2
)

// NASARepository fetches and parses the OEM XML feed published by NASA.
type NASARepository struct {
	BaseURL    string
	httpClient HTTPClient
	l          *logger.Logger
}

func NewNASARepository(baseURL string, l *logger.Logger, httpClient HTTPClient) *NASARepository {
	if baseURL == "" {
		baseURL = NASABaseURL
	}
	return &NASARepository{
		BaseURL:    baseURL,
		httpClient: httpClient,
		l:          l,
	}
}

func (n *NASARepository) Name() string {
	return "nasa-oem"
}

// oemDocument mirrors the ndm/oem/body/segment layout of the feed.
type oemDocument struct {
	XMLName xml.Name   `xml:"ndm"`
	Segment oemSegment `xml:"oem>body>segment"`
}

type oemSegment struct {
	Metadata oemMetadata `xml:"metadata"`
	Data     struct {
		StateVectors []oemStateVector `xml:"stateVector"`
	} `xml:"data"`
}

type oemMetadata struct {
	ObjectName string `xml:"OBJECT_NAME"`
	ObjectID   string `xml:"OBJECT_ID"`
	CenterName string `xml:"CENTER_NAME"`
	RefFrame   string `xml:"REF_FRAME"`
	TimeSystem string `xml:"TIME_SYSTEM"`
	StartTime  string `xml:"START_TIME"`
	StopTime   string `xml:"STOP_TIME"`
}

// oemStateVector keeps components as text; each element carries a units
// attribute and the value as character data.
type oemStateVector struct {
	Epoch string `xml:"EPOCH"`
	X     string `xml:"X"`
	Y     string `xml:"Y"`
	Z     string `xml:"Z"`
	XDot  string `xml:"X_DOT"`
	YDot  string `xml:"Y_DOT"`
	ZDot  string `xml:"Z_DOT"`
}

// FetchEphemeris downloads and parses the feed. A failed download is retried
// once before the error is reported.
func (n *NASARepository) FetchEphemeris(ctx context.Context) (models.Ephemeris, error) {
	var body []byte
	var lastErr error

	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		n.l.Info("fetching ephemeris feed", map[string]any{
			"url":     n.BaseURL,
			"attempt": attempt,
		})

		body, lastErr = n.download(ctx)
		if lastErr == nil {
			break
		}

		n.l.Warning("ephemeris download failed", map[string]any{
			"attempt": attempt,
			"err":     lastErr,
		})

		if ctx.Err() != nil {
			return models.Ephemeris{}, ctx.Err()
		}
	}
	if lastErr != nil {
		return models.Ephemeris{}, lastErr
	}

	ephemeris, err := parseOEM(body)
	if err != nil {
		return models.Ephemeris{}, err
	}

	n.l.Info("parsed ephemeris feed", map[string]any{
		"object":        ephemeris.Metadata.ObjectName,
		"state_vectors": len(ephemeris.StateVectors),
	})

	return ephemeris, nil
}

func (n *NASARepository) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
	}

	return body, nil
}

// parseOEM decodes the XML document into the domain model, converting the
// textual vector components to floats.
func parseOEM(body []byte) (models.Ephemeris, error) {
	var doc oemDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return models.Ephemeris{}, fmt.Errorf("failed to parse OEM XML: %w", err)
	}

	if len(doc.Segment.Data.StateVectors) == 0 {
		return models.Ephemeris{}, fmt.Errorf("no state vectors in feed")
	}

	ephemeris := models.Ephemeris{
		Metadata: models.Metadata{
			ObjectName: doc.Segment.Metadata.ObjectName,
			ObjectID:   doc.Segment.Metadata.ObjectID,
			CenterName: doc.Segment.Metadata.CenterName,
			RefFrame:   doc.Segment.Metadata.RefFrame,
			TimeSystem: doc.Segment.Metadata.TimeSystem,
			StartTime:  doc.Segment.Metadata.StartTime,
			StopTime:   doc.Segment.Metadata.StopTime,
		},
		StateVectors: make([]models.StateVector, 0, len(doc.Segment.Data.StateVectors)),
	}

	for _, raw := range doc.Segment.Data.StateVectors {
		sv, err := convertStateVector(raw)
		if err != nil {
			return models.Ephemeris{}, err
		}
		ephemeris.StateVectors = append(ephemeris.StateVectors, sv)
	}

	return ephemeris, nil
}

func convertStateVector(raw oemStateVector) (models.StateVector, error) {
	sv := models.StateVector{Epoch: strings.TrimSpace(raw.Epoch)}

	fields := []struct {
		name string
		text string
		dst  *float64
	}{
		{"X", raw.X, &sv.X},
		{"Y", raw.Y, &sv.Y},
		{"Z", raw.Z, &sv.Z},
		{"X_DOT", raw.XDot, &sv.XDot},
		{"Y_DOT", raw.YDot, &sv.YDot},
		{"Z_DOT", raw.ZDot, &sv.ZDot},
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.text), 64)
		if err != nil {
			return models.StateVector{}, fmt.Errorf("state vector %s: invalid %s value %q: %w", sv.Epoch, f.name, f.text, err)
		}
		*f.dst = v
	}

	return sv, nil
}
