// Package sheets reads the registrations dataset from a Google Sheets range
// using service account credentials.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"regdash/internal/core"
	"regdash/internal/source"
)

// Credentials selects how the service account is supplied. JSON wins over
// File when both are set.
type Credentials struct {
	JSON string
	File string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

var _ source.Source = (*Client)(nil)

// New creates a Sheets source reading readRange (for example "Registrations!A:D").
func New(ctx context.Context, spreadsheetID, readRange string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(readRange) == "" {
		return nil, errors.New("missing sheet range")
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

// newSheetsService initializes a read-only Sheets service with service account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var (
		credentialsJSON []byte
		err             error
	)

	switch {
	case strings.TrimSpace(creds.JSON) != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", creds.File)
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Name() string {
	return "sheets:" + c.spreadsheetID + "/" + c.readRange
}

// ReadTable fetches the range with unformatted values so counts and date
// serials arrive as numbers regardless of the sheet locale.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	if c.svc == nil {
		return core.Table{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return core.Table{}, fmt.Errorf("get values %s: %w", c.readRange, err)
	}
	return valuesToTable(resp.Values)
}
