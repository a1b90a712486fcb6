// Package sheets publishes finished ledger mappings to a Google Sheet,
// one row per voucher line, so a bookkeeper can review proposals without
// touching the pipeline.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/svedin/kontera/internal/logger"
	"github.com/svedin/kontera/pkg/models"
)

// Service appends voucher rows to one spreadsheet.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// voucherHeaders is the fixed column layout, A through N.
var voucherHeaders = []interface{}{
	"Verifikationsdatum", "Verifikationstyp", "Verifikationstext",
	"Konto", "Kontonamn", "Debet", "Kredit", "Kostnadsställe",
	"Leverantör", "Fakturanr", "Förfallodatum", "Status",
	"Varningar", "Bearbetad",
}

const columnSpan = "A:N"

// NewService creates a sheets sink for the spreadsheet the URL points at.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS or
// GOOGLE_CREDENTIALS.
func NewService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID pulls the document ID out of a Google Sheets URL.
func extractSpreadsheetID(url string) (string, error) {
	re := regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// AppendMapping writes one row per voucher line of the mapping to the
// named worksheet, creating the worksheet and its header row on first use.
func (s *Service) AppendMapping(ctx context.Context, mapping *models.LedgerMapping, worksheet string) error {
	const op = "AppendMapping"

	if mapping == nil || len(mapping.VoucherLines) == 0 {
		s.log.Debug().Msg("Nothing to publish, mapping has no voucher lines")
		return nil
	}

	if err := s.ensureWorksheet(ctx, worksheet); err != nil {
		return fmt.Errorf("%s: failed to ensure worksheet exists: %w", op, err)
	}

	values := mappingRows(mapping)
	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		worksheet+"!"+columnSpan,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("worksheet", worksheet).
		Int("rows_written", len(values)).
		Msg("Voucher published to Google Sheet")

	return nil
}

// mappingRows flattens the mapping into sheet rows. Voucher-level fields
// repeat on every line so each row reads standalone.
func mappingRows(mapping *models.LedgerMapping) [][]interface{} {
	status := "Klar"
	if mapping.RequiresReview {
		status = "Granskas"
	}
	warnings := strings.Join(mapping.Warnings, "; ")
	processedAt := time.Now().Format("2006-01-02 15:04:05")

	var supplier, invoiceNumber, dueDate string
	if inv := mapping.SupplierInvoice; inv != nil {
		supplier = inv.SupplierName
		invoiceNumber = inv.InvoiceNumber
		dueDate = inv.DueDate
	}

	rows := make([][]interface{}, 0, len(mapping.VoucherLines))
	for _, line := range mapping.VoucherLines {
		rows = append(rows, []interface{}{
			mapping.VoucherDate,      // A: Verifikationsdatum
			string(mapping.VoucherType), // B: Verifikationstyp
			mapping.VoucherText,      // C: Verifikationstext
			line.Account,             // D: Konto
			line.AccountName,         // E: Kontonamn
			line.Debit,               // F: Debet
			line.Credit,              // G: Kredit
			line.CostCenter,          // H: Kostnadsställe
			supplier,                 // I: Leverantör
			invoiceNumber,            // J: Fakturanr
			dueDate,                  // K: Förfallodatum
			status,                   // L: Status
			warnings,                 // M: Varningar
			processedAt,              // N: Bearbetad
		})
	}
	return rows
}

// ensureWorksheet creates the worksheet and header row when missing.
func (s *Service) ensureWorksheet(ctx context.Context, worksheet string) error {
	const op = "ensureWorksheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var exists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == worksheet {
			exists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !exists {
		s.log.Info().Str("worksheet", worksheet).Msg("Creating new worksheet")
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: worksheet},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create worksheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:N1", worksheet)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("worksheet", worksheet).Msg("Adding header row")
		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{voucherHeaders}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}
		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders bolds the header row and auto-sizes the columns.
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(voucherHeaders)),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(voucherHeaders)),
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}
