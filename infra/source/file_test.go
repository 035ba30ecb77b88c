package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fillcast/core/model"
	"github.com/kilianp07/fillcast/pkg/export"
)

const historyCSV = `dateTime,fillPercent,temperature,humidity,distance,status
2025-03-10T10:00:00Z,47.5,21.9,,12.4,ok
2025-03-10 09:00:00,,21.7,54,,ok
2025-03-10T08:00:00+01:00,40,21.5,55,14.1,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceCSV(t *testing.T) {
	src := NewFileSource(writeFile(t, "history.csv", historyCSV), "bin-1")
	samples, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "bin-1", samples[0].BinID)
	assert.True(t, samples[0].Timestamp.Equal(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 47.5, samples[0].Fill(), 1e-9)
	assert.Nil(t, samples[0].Humidity)
	assert.Equal(t, "ok", samples[0].Status)

	assert.Nil(t, samples[1].FillPercent)
	assert.False(t, samples[1].Usable())
	assert.True(t, samples[1].Timestamp.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	assert.True(t, samples[2].Timestamp.Equal(time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)))
}

func TestReadCSVColumnsByName(t *testing.T) {
	in := "status,fillPercent,dateTime\nfull,99,2025-03-10T10:00:00Z\n"
	samples, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 99, samples[0].Fill(), 1e-9)
	assert.Equal(t, "full", samples[0].Status)
}

func TestReadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "dateTime,temperature\n2025-03-10T10:00:00Z,20\n",
		"bad number":     "dateTime,fillPercent\n2025-03-10T10:00:00Z,abc\n",
		"bad time":       "dateTime,fillPercent\nyesterday,10\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	samples, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestFileSourceJSON(t *testing.T) {
	in := `[
  {"dateTime": "2025-03-10T08:00:00Z", "fillPercent": 40, "temp": 21.5, "humidity": 55, "distance": 14.1, "status": "ok"},
  {"dateTime": "2025-03-10T09:00:00Z", "fillPercent": null},
  {"binId": "other", "dateTime": "", "fillPercent": 12}
]`
	samples, err := NewFileSource(writeFile(t, "history.json", in), "bin-1").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)
	require.NotNil(t, samples[0].Temperature)
	assert.InDelta(t, 21.5, *samples[0].Temperature, 1e-9)
	assert.Nil(t, samples[1].FillPercent)
	assert.Equal(t, "other", samples[2].BinID)
	assert.True(t, samples[2].Timestamp.IsZero())
}

func TestFileSourceUnsupportedFormat(t *testing.T) {
	_, err := NewFileSource(writeFile(t, "history.txt", "x"), "").Load(context.Background())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "none.csv"), "").Load(context.Background())
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	in := []model.Sample{model.NewSample(base, 10), model.NewSample(base.Add(time.Hour), 12.5)}
	in[1].Distance = model.Float(30)

	var csvBuf, jsonBuf bytes.Buffer
	require.NoError(t, export.WriteSamplesCSV(&csvBuf, in))
	require.NoError(t, export.WriteSamplesJSON(&jsonBuf, in))

	for name, read := range map[string]func() ([]model.Sample, error){
		"csv":  func() ([]model.Sample, error) { return ReadCSV(&csvBuf) },
		"json": func() ([]model.Sample, error) { return ReadJSON(&jsonBuf) },
	} {
		out, err := read()
		require.NoError(t, err, name)
		require.Len(t, out, 2, name)
		// newest first
		assert.InDelta(t, 12.5, out[0].Fill(), 1e-9, name)
		require.NotNil(t, out[0].Distance, name)
		assert.True(t, out[1].Timestamp.Equal(base), name)
	}
}

func TestConfigValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "file", c.Type)
	assert.Error(t, c.Validate())

	c.File.Path = "history.csv"
	assert.NoError(t, c.Validate())

	c.Type = "influx"
	assert.Error(t, c.Validate())
	c.Influx = InfluxConfig{URL: "http://localhost:8086", Org: "o", Bucket: "b"}
	assert.NoError(t, c.Validate())

	c.Type = "ftp"
	assert.Error(t, c.Validate())
	_, err := New(c)
	assert.Error(t, err)
}

func TestNewBuildsConfiguredSource(t *testing.T) {
	src, err := New(Config{Type: "file", File: FileConfig{Path: "h.csv"}})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = New(Config{Type: "influx", BinID: "b", Influx: InfluxConfig{URL: "http://localhost:8086", Org: "o", Bucket: "b"}})
	require.NoError(t, err)
	is, ok := src.(*InfluxSource)
	require.True(t, ok)
	defer is.Close()
	assert.Contains(t, is.Flux(), `r.bin_id == "b"`)
}

func TestHTTPConfigValidate(t *testing.T) {
	c := Config{Type: "http"}
	assert.Error(t, c.Validate())
	c.HTTP.URL = "https://example.com/history.json"
	assert.NoError(t, c.Validate())
	src, err := New(c)
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)
}
