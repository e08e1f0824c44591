package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"wordcards/internal/models"
)

// Spreadsheet column order shared by the Excel and CSV formats
const (
	colCategoryID = iota
	colCategoryName
	colWordID
	colText
	colTranslation
	colPinyin
	colDifficulty
	colExample
	colExampleTranslation
)

// readExcel returns the rows of the first sheet of an Excel workbook
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// parseRows groups spreadsheet rows into categories, keeping first-seen order.
// A header row is recognised by a non-numeric first cell and skipped.
func parseRows(rows [][]string) ([]models.Category, error) {
	var categories []models.Category
	index := make(map[int64]int)

	for i, row := range rows {
		rowNum := i + 1
		if isBlank(row) {
			continue
		}
		if i == 0 {
			if _, err := strconv.ParseInt(cell(row, colCategoryID), 10, 64); err != nil {
				continue
			}
		}

		categoryID, err := strconv.ParseInt(cell(row, colCategoryID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid category_id %q", rowNum, cell(row, colCategoryID))
		}
		wordID, err := strconv.ParseInt(cell(row, colWordID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid word_id %q", rowNum, cell(row, colWordID))
		}

		word := models.Word{
			ID:                 wordID,
			CategoryID:         categoryID,
			Text:               cell(row, colText),
			Translation:        cell(row, colTranslation),
			Pinyin:             cell(row, colPinyin),
			Difficulty:         strings.ToLower(cell(row, colDifficulty)),
			Example:            cell(row, colExample),
			ExampleTranslation: cell(row, colExampleTranslation),
		}
		if word.Text == "" || word.Translation == "" {
			return nil, fmt.Errorf("row %d: text and translation are required", rowNum)
		}

		pos, ok := index[categoryID]
		if !ok {
			categories = append(categories, models.Category{
				ID:   categoryID,
				Name: cell(row, colCategoryName),
			})
			pos = len(categories) - 1
			index[categoryID] = pos
		}
		categories[pos].Words = append(categories[pos].Words, word)
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("no words found")
	}
	return categories, nil
}

func cell(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
