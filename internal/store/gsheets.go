package store

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const driveScope = "https://www.googleapis.com/auth/drive"

// GoogleSheet is a worksheet of a Google spreadsheet accessed with a
// service account
type GoogleSheet struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// OpenGoogleSheet authenticates with the service account credentials file and
// makes sure the worksheet exists (2000 rows x 50 columns when created).
func OpenGoogleSheet(ctx context.Context, credentialsFile, spreadsheetID, worksheet string) (*GoogleSheet, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope, driveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	g := &GoogleSheet{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
	if err := g.ensureWorksheet(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GoogleSheet) ensureWorksheet(ctx context.Context) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == g.worksheet {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          g.worksheet,
					GridProperties: &sheets.GridProperties{RowCount: 2000, ColumnCount: 50},
				},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add worksheet %q: %w", g.worksheet, err)
	}
	return nil
}

// Close is a no-op; the HTTP client has nothing to release
func (g *GoogleSheet) Close() error { return nil }

// a1 quotes the worksheet title for use in an A1 range
func (g *GoogleSheet) a1(suffix string) string {
	r := "'" + strings.ReplaceAll(g.worksheet, "'", "''") + "'"
	if suffix != "" {
		r += "!" + suffix
	}
	return r
}

func (g *GoogleSheet) get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c)
		}
		out[i] = cells
	}
	return out, nil
}

// Values returns every row of the worksheet
func (g *GoogleSheet) Values(ctx context.Context) ([][]string, error) {
	return g.get(ctx, g.a1(""))
}

// Header returns row 1
func (g *GoogleSheet) Header(ctx context.Context) ([]string, error) {
	rows, err := g.get(ctx, g.a1("1:1"))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// WriteHeader overwrites row 1
func (g *GoogleSheet) WriteHeader(ctx context.Context, header []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(header)}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.a1("1:1"), vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

// AppendRow appends after the last row with data
func (g *GoogleSheet) AppendRow(ctx context.Context, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, g.a1(""), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
