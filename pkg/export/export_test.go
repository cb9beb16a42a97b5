package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/model"
)

var steps = []model.Timestep{
	{Step: 0, Time: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), TAmb: 273.15, PBase: 0.5, SoCBat: 5},
	{Step: 1, Time: time.Date(2021, 1, 1, 1, 0, 0, 0, time.UTC), TAmb: 272.65, PBase: 0.25, PBat: -1.5, SoCBat: 6.5},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, "r1", steps))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Len(t, rows[1], len(Header))
	assert.Equal(t, []string{"r1", "1", "2021-01-01T01:00:00Z", "272.65"}, rows[2][:4])
	assert.Equal(t, "-1.5", rows[2][11])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "r1", steps))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0]["run_id"])
	assert.Equal(t, 6.5, got[1]["soc_bat"])
}
