package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"airquality-platform/internal/classification"
	"airquality-platform/internal/models"
	"airquality-platform/pkg/logging"
)

// DemoDataProcessing demonstrates the data processing without database
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("AIR QUALITY PLATFORM - DATA PROCESSING DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	// Initialize logger
	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.InfoLevel)
	ctx := context.Background()

	// Process each station measurement file
	dataDir := "./aq_data"
	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		fmt.Printf("Error reading directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d station measurement files\n\n", len(files))

	totalRecords := 0
	validRecords := 0
	missingDataCount := 0

	// Per pollutant concentration sums for the classification demo
	pollutantSums := make(map[string]float64)
	pollutantCounts := make(map[string]int)

	for _, filePath := range files {
		fileName := filepath.Base(filePath)
		stationID := strings.TrimSuffix(fileName, filepath.Ext(fileName))

		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("Processing Station: %s\n", stationID)
		fmt.Printf("─────────────────────────────────────────────────────────────\n")

		content, err := os.ReadFile(filePath)
		if err != nil {
			logger.Error(ctx, "Failed to read file", logging.Fields{
				"file": filePath,
			}, err)
			continue
		}
		lines := strings.Split(string(content), "\n")

		fileRecords := 0
		fileValid := 0
		fileMissing := 0

		for i, line := range lines {
			if line == "" {
				continue
			}

			totalRecords++
			fileRecords++

			// Parse line
			parts := strings.Split(line, "\t")
			if len(parts) != 3 {
				fmt.Printf("  [%d] Invalid format: %s\n", i+1, line)
				continue
			}

			// Create raw record
			record := &models.RawMeasurementRecord{
				Timestamp:           strings.TrimSpace(parts[0]),
				Pollutant:           strings.ToLower(strings.TrimSpace(parts[1])),
				ConcentrationTenths: parseInt(parts[2]),
			}

			// Convert to measurement
			measurement, err := record.ToMeasurement(stationID)
			if err != nil {
				fmt.Printf("  [%d] Conversion error: %v\n", i+1, err)
				continue
			}

			fileValid++
			validRecords++

			hasMissing := measurement.ConcentrationUgm3 == nil
			if hasMissing {
				fileMissing++
				missingDataCount++
			} else {
				pollutantSums[measurement.Pollutant] += *measurement.ConcentrationUgm3
				pollutantCounts[measurement.Pollutant]++
			}

			// Print first 3 records and any with missing data
			if i < 3 || hasMissing {
				fmt.Printf("  [%d] Time: %s | Pollutant: %s", i+1,
					measurement.MeasuredAt.Format("2006-01-02 15:00"), measurement.Pollutant)

				if measurement.ConcentrationUgm3 != nil {
					fmt.Printf(" | Concentration: %.1f µg/m³", *measurement.ConcentrationUgm3)
				} else {
					fmt.Printf(" | Concentration: NULL")
				}

				if hasMissing {
					fmt.Printf(" ⚠ MISSING DATA")
				}
				fmt.Println()
			}
		}

		fmt.Printf("\n  Station Summary:\n")
		fmt.Printf("    Total records: %d\n", fileRecords)
		fmt.Printf("    Valid conversions: %d\n", fileValid)
		fmt.Printf("    Missing values: %d\n", fileMissing)
		fmt.Println()
	}

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("PROCESSING SUMMARY")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Printf("Total measurement files: %d\n", len(files))
	fmt.Printf("Total records:           %d\n", totalRecords)
	fmt.Printf("Valid conversions:       %d\n", validRecords)
	fmt.Printf("Missing data points:     %d\n", missingDataCount)
	if totalRecords > 0 {
		fmt.Printf("Success rate:            %.2f%%\n", float64(validRecords)/float64(totalRecords)*100)
	}
	fmt.Println()

	// Demonstrate the WHO 2021 classification on the computed averages
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("CLASSIFICATION DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")

	for pollutant, count := range pollutantCounts {
		avg := pollutantSums[pollutant] / float64(count)

		hours, _ := classification.DefaultWindow(pollutant)
		result := classification.Classify(pollutant, &avg, hours)

		fmt.Printf("Pollutant: %s\n", pollutant)
		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("  Average concentration: %.2f µg/m³ (from %d readings)\n", avg, count)
		fmt.Printf("  Exposure window:       %dh\n", hours)
		fmt.Printf("  Tier:                  %s (%s)\n", result.Tier, result.Color)
		fmt.Printf("  Description:           %s\n", result.Description)
		if result.Thresholds != nil {
			fmt.Printf("  Thresholds:            good ≤ %.0f, moderate ≤ %.0f (%s)\n",
				result.Thresholds.GoodLimit, result.Thresholds.ModerateLimit, result.Thresholds.Source)
		}
		fmt.Println()
	}

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ DATA PROCESSING DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("The system successfully:")
	fmt.Println("  ✓ Parsed tab-delimited measurement data")
	fmt.Println("  ✓ Converted units (0.1 µg/m³ → µg/m³)")
	fmt.Println("  ✓ Handled missing values (-9999 → NULL)")
	fmt.Println("  ✓ Calculated average concentrations per pollutant")
	fmt.Println("  ✓ Classified averages against WHO 2021 thresholds")
	fmt.Println()
	fmt.Println("With a database, this would:")
	fmt.Println("  • Store all measurements in the measurements table")
	fmt.Println("  • Calculate and cache yearly statistics in pollutant_statistics")
	fmt.Println("  • Serve the map drill-down via REST API endpoints")
	fmt.Println("  • Provide real-time metrics and monitoring")
	fmt.Println()
}

func parseInt(s string) int {
	var val int
	fmt.Sscanf(strings.TrimSpace(s), "%d", &val)
	return val
}
