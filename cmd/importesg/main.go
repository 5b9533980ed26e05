// Command importesg bulk-loads the ESG ratings dataset from a CSV export
// into Postgres. Rows are upserted in batches so the import can be re-run
// on a refreshed export without duplicating data.
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"terravest-backend/internal/config"
	"terravest-backend/internal/database"
	"terravest-backend/internal/models"
)

const batchSize = 1000

// row is one parsed CSV record. Each record carries both the company
// identity columns and one metric observation.
type row struct {
	OrgPermID  int64
	Ticker     string
	Name       string
	ISIN       string
	SICCode    string
	Year       int
	FieldID    int
	Hierarchy  string
	Pillar     string
	FieldName  string
	Value      string
	ValueScore float64
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	csvPath := flag.String("csv", "", "path to the ESG dataset CSV")
	flag.Parse()
	if *csvPath == "" {
		log.Fatal().Msg("usage: importesg -csv <path>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *csvPath).Msg("open csv failed")
	}
	defer file.Close()

	// The vendor export is Latin-1, not UTF-8.
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(file))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		log.Fatal().Err(err).Msg("read csv header failed")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"orgpermid", "ticker", "comname", "isin", "siccode", "year", "fieldid", "hierarchy", "pillar", "fieldname", "value", "valuescore"} {
		if _, ok := col[required]; !ok {
			log.Fatal().Str("column", required).Msg("csv missing required column")
		}
	}

	var (
		batch     []row
		processed int
		skipped   int
		start     = time.Now()
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := upsertBatch(db, batch); err != nil {
			log.Fatal().Err(err).Int("at_row", processed).Msg("batch upsert failed")
		}
		processed += len(batch)
		batch = batch[:0]
		log.Info().Int("rows", processed).Dur("elapsed", time.Since(start)).Msg("progress")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Int("at_row", processed+len(batch)).Msg("read csv record failed")
		}
		r, ok := parseRow(record, col)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	log.Info().
		Int("rows", processed).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("import complete")
}

func parseRow(record []string, col map[string]int) (row, bool) {
	get := func(name string) string {
		return strings.TrimSpace(record[col[name]])
	}
	orgPermID, err := strconv.ParseInt(get("orgpermid"), 10, 64)
	if err != nil {
		return row{}, false
	}
	year, err := strconv.Atoi(get("year"))
	if err != nil {
		return row{}, false
	}
	fieldID, err := strconv.Atoi(get("fieldid"))
	if err != nil {
		return row{}, false
	}
	// valuescore may be empty for non-scored descriptive fields
	valueScore, _ := strconv.ParseFloat(get("valuescore"), 64)

	return row{
		OrgPermID:  orgPermID,
		Ticker:     get("ticker"),
		Name:       get("comname"),
		ISIN:       get("isin"),
		SICCode:    get("siccode"),
		Year:       year,
		FieldID:    fieldID,
		Hierarchy:  get("hierarchy"),
		Pillar:     get("pillar"),
		FieldName:  get("fieldname"),
		Value:      get("value"),
		ValueScore: valueScore,
	}, true
}

// upsertBatch writes one batch inside a transaction: companies first
// (keyed on orgperm_id), then metrics keyed on (company_id, year, fieldid).
func upsertBatch(db *gorm.DB, batch []row) error {
	return db.Transaction(func(tx *gorm.DB) error {
		companies := make([]models.ESGCompany, 0, len(batch))
		seen := make(map[int64]bool, len(batch))
		for _, r := range batch {
			if seen[r.OrgPermID] {
				continue
			}
			seen[r.OrgPermID] = true
			companies = append(companies, models.ESGCompany{
				OrgPermID: r.OrgPermID,
				Ticker:    r.Ticker,
				Name:      r.Name,
				ISIN:      r.ISIN,
				SICCode:   r.SICCode,
			})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "orgperm_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"ticker", "name", "isin", "siccode"}),
		}).Create(&companies).Error; err != nil {
			return err
		}

		// Resolve orgperm_id -> primary key for this batch.
		ids := make([]int64, 0, len(seen))
		for id := range seen {
			ids = append(ids, id)
		}
		var resolved []models.ESGCompany
		if err := tx.Select("id", "orgperm_id").Where("orgperm_id IN ?", ids).Find(&resolved).Error; err != nil {
			return err
		}
		companyID := make(map[int64]uint, len(resolved))
		for _, c := range resolved {
			companyID[c.OrgPermID] = c.ID
		}

		metrics := make([]models.ESGMetric, 0, len(batch))
		for _, r := range batch {
			id, ok := companyID[r.OrgPermID]
			if !ok {
				continue
			}
			metrics = append(metrics, models.ESGMetric{
				CompanyID:  id,
				Year:       r.Year,
				FieldID:    r.FieldID,
				Hierarchy:  r.Hierarchy,
				Pillar:     r.Pillar,
				FieldName:  r.FieldName,
				Value:      r.Value,
				ValueScore: r.ValueScore,
			})
		}
		if len(metrics) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "year"}, {Name: "fieldid"}},
			DoUpdates: clause.AssignmentColumns([]string{"hierarchy", "pillar", "fieldname", "value", "valuescore"}),
		}).Create(&metrics).Error
	})
}
