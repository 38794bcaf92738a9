package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gc-distance/internal/models"
)

// Column layout of the customer sheets: A = id, B = name, J = lat, K = lon.
const (
	colID   = 0
	colName = 1
	colLat  = 9
	colLon  = 10
)

func parseCoord(val string) (float64, error) {
	// Replace comma with dot for Turkish locales
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func OpenFile(filename string) (*excelize.File, error) {
	return excelize.OpenFile(filename)
}

// ReadSheet reads customers from sheetName. Rows whose coordinates cannot be
// parsed are returned with Valid == false instead of being dropped.
func ReadSheet(f *excelize.File, sheetName string) ([]models.Customer, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var customers []models.Customer
	// Assume header is row 0, start from row 1
	for i, row := range rows {
		if i == 0 {
			continue // Skip header
		}
		if strings.TrimSpace(cell(row, colID)) == "" {
			continue // Blank line
		}

		lat, err1 := parseCoord(cell(row, colLat))
		lon, err2 := parseCoord(cell(row, colLon))

		c := models.Customer{
			ID:   row[colID],
			Name: cell(row, colName),
			Loc: models.Coordinate{
				Lat: lat,
				Lon: lon,
			},
			Valid:    err1 == nil && err2 == nil,
			RowIndex: i + 1,
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// ReadWaypoints reads the destination sheet: A = id, B = name, C = lat,
// D = lon, E = azimuth (degrees), F = distance (meters).
func ReadWaypoints(f *excelize.File, sheetName string) ([]models.Waypoint, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var waypoints []models.Waypoint
	for i, row := range rows {
		if i == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}

		var vals [4]float64
		valid := true
		for k := range vals {
			v, err := parseCoord(cell(row, 2+k))
			if err != nil {
				valid = false
			}
			vals[k] = v
		}

		waypoints = append(waypoints, models.Waypoint{
			ID:       row[0],
			Name:     cell(row, 1),
			Start:    models.Coordinate{Lat: vals[0], Lon: vals[1]},
			Azimuth:  vals[2],
			Distance: vals[3],
			Valid:    valid,
			RowIndex: i + 1,
		})
	}
	return waypoints, nil
}

// WriteResult writes nearest/radius results to a new workbook at path.
func WriteResult(path string, data []models.ResultRow, sheetName string) error {
	headers := []interface{}{
		"KACC Musteri No", "KACC Musteri Adı", "KACC Lat", "KACC Lon",
		"POS Musteri No", "POS Musteri Adı", "POS Lat", "POS Lon",
		"Mesafe (m)", "Azimut (°)", "Ters Azimut (°)",
	}
	return writeRows(path, sheetName, headers, len(data), func(i int) []interface{} {
		r := data[i]
		row := []interface{}{
			r.KaccID, r.KaccName, nil, nil,
			r.PosID, r.PosName, nil, nil, nil, nil, nil,
		}
		if r.KaccValid {
			row[2], row[3] = r.KaccLat, r.KaccLon
		}
		if r.Found {
			row[6], row[7] = r.PosLat, r.PosLon
			row[8] = int(math.Round(r.Distance))
			row[9], row[10] = round(r.Azimuth, 6), round(r.ReverseAzimuth, 6)
		}
		return row
	})
}

// WriteDestinations writes destination results to a new workbook at path.
func WriteDestinations(path string, data []models.DestinationRow, sheetName string) error {
	headers := []interface{}{
		"No", "Ad", "Baslangic Lat", "Baslangic Lon", "Azimut (°)", "Mesafe (m)",
		"Hedef Lat", "Hedef Lon", "Ters Azimut (°)",
	}
	return writeRows(path, sheetName, headers, len(data), func(i int) []interface{} {
		r := data[i]
		row := []interface{}{r.ID, r.Name, nil, nil, nil, nil, nil, nil, nil}
		if r.Valid {
			row[2], row[3], row[4], row[5] = r.Start.Lat, r.Start.Lon, r.Azimuth, r.Distance
		}
		if r.Found {
			row[6], row[7] = round(r.Dest.Lat, 8), round(r.Dest.Lon, 8)
			row[8] = round(r.ReverseAzimuth, 6)
		}
		return row
	})
}

func writeRows(path, sheetName string, headers []interface{}, n int, rowAt func(i int) []interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(axis, rowAt(i)); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	// Delete default sheet if exists
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	return f.SaveAs(path)
}

func round(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
