package collate

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/cozi-lab/logsync/internal/fieldmap"
	"github.com/cozi-lab/logsync/internal/models"
)

var testMap = fieldmap.Map{
	"temp_C":       "Temperature",
	"rel_humidity": "Relative Humidity",
	"co2_ppm":      "CO2",
}

func sample(ts time.Time, column, value string) models.Sample {
	return models.Sample{Timestamp: ts, Column: column, Value: value}
}

func TestCollate(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("filters and relabels", func(t *testing.T) {
		samples := []models.Sample{
			sample(ts, "temp_C", "5.0"),
			sample(ts, "humidity", "80.0"), // not in the field map
		}

		rows, dropped := Collate(samples, fieldmap.Map{"temp_C": "Temperature"})
		if dropped != 0 {
			t.Errorf("Expected no dropped samples, got %d", dropped)
		}
		if len(rows) != 1 {
			t.Fatalf("Expected exactly 1 row, got %d", len(rows))
		}
		want := models.Row{Timestamp: ts, Measurand: "Temperature", Value: 5.0}
		if rows[0] != want {
			t.Errorf("Expected %+v, got %+v", want, rows[0])
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		// File A then file B, both logging temp_C at the same instant.
		samples := []models.Sample{
			sample(ts, "temp_C", "10.0"),
			sample(ts, "temp_C", "12.0"),
		}

		rows, _ := Collate(samples, testMap)
		if len(rows) != 1 {
			t.Fatalf("Expected 1 merged row, got %d", len(rows))
		}
		if rows[0].Value != 12.0 {
			t.Errorf("Expected later value 12.0 to win, got %v", rows[0].Value)
		}
	})

	t.Run("sorted by timestamp then measurand", func(t *testing.T) {
		later := ts.Add(time.Minute)
		samples := []models.Sample{
			sample(later, "rel_humidity", "70"),
			sample(ts, "temp_C", "5"),
			sample(later, "co2_ppm", "400"),
			sample(ts, "co2_ppm", "410"),
		}

		rows, _ := Collate(samples, testMap)
		var got []string
		for _, r := range rows {
			got = append(got, r.Timestamp.Format(models.TimestampLayout)+"/"+r.Measurand)
		}
		want := []string{
			"2021-01-01 00:00:00/CO2",
			"2021-01-01 00:00:00/Temperature",
			"2021-01-01 00:01:00/CO2",
			"2021-01-01 00:01:00/Relative Humidity",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected order %v, got %v", want, got)
		}
	})

	t.Run("uncoercible value dropped", func(t *testing.T) {
		samples := []models.Sample{
			sample(ts, "temp_C", "garbage"),
			sample(ts, "co2_ppm", "400"),
		}

		rows, dropped := Collate(samples, testMap)
		if dropped != 1 {
			t.Errorf("Expected 1 dropped sample, got %d", dropped)
		}
		if len(rows) != 1 || rows[0].Measurand != "CO2" {
			t.Errorf("Expected only the CO2 row, got %+v", rows)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		rows, dropped := Collate(nil, testMap)
		if len(rows) != 0 || dropped != 0 {
			t.Errorf("Expected empty output, got %d rows %d dropped", len(rows), dropped)
		}
	})
}

// genSamples generates random sample slices over a mix of mapped and
// unmapped columns.
func genSamples() gopter.Gen {
	columns := []string{"temp_C", "rel_humidity", "co2_ppm", "pressure_hPa", "status"}
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	genOne := gopter.CombineGens(
		gen.IntRange(0, len(columns)-1),
		gen.Int64Range(0, 600),
		gen.Float64Range(-100, 100),
	).Map(func(vals []interface{}) models.Sample {
		return models.Sample{
			Timestamp: base.Add(time.Duration(vals[1].(int64)) * time.Second),
			Column:    columns[vals[0].(int)],
			Value:     strconv.FormatFloat(vals[2].(float64), 'f', -1, 64),
		}
	})

	return gen.SliceOf(genOne)
}

func TestCollateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no duplicate (timestamp, measurand) pairs", prop.ForAll(
		func(samples []models.Sample) bool {
			rows, _ := Collate(samples, testMap)
			seen := make(map[string]bool)
			for _, r := range rows {
				key := r.Timestamp.Format(models.TimestampLayout) + "\x00" + r.Measurand
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return true
		},
		genSamples(),
	))

	properties.Property("output is sorted by timestamp then measurand", prop.ForAll(
		func(samples []models.Sample) bool {
			rows, _ := Collate(samples, testMap)
			for i := 1; i < len(rows); i++ {
				a, b := rows[i-1], rows[i]
				if a.Timestamp.After(b.Timestamp) {
					return false
				}
				if a.Timestamp.Equal(b.Timestamp) && a.Measurand >= b.Measurand {
					return false
				}
			}
			return true
		},
		genSamples(),
	))

	properties.Property("unmapped columns never reach output", prop.ForAll(
		func(samples []models.Sample) bool {
			rows, _ := Collate(samples, testMap)
			labels := map[string]bool{}
			for _, label := range testMap {
				labels[label] = true
			}
			for _, r := range rows {
				if !labels[r.Measurand] {
					return false
				}
			}
			return true
		},
		genSamples(),
	))

	properties.Property("collation is deterministic", prop.ForAll(
		func(samples []models.Sample) bool {
			rowsA, droppedA := Collate(samples, testMap)
			rowsB, droppedB := Collate(samples, testMap)
			return droppedA == droppedB && reflect.DeepEqual(rowsA, rowsB)
		},
		genSamples(),
	))

	properties.TestingRun(t)
}
