package lidarsummary

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader mirrors the Detection field order used for the JSON summary, so
// the CSV export (a supplemented feature from the original pipeline, which
// always wrote a sidecar CSV alongside its JSON summary) round-trips the
// same information in a spreadsheet-friendly form.
var csvHeader = []string{
	"tile", "id", "file", "x", "y", "area_cells", "area_m2",
	"hag_mean", "hag_max", "circularity", "solidity",
	"dedupe_cluster_id", "dedupe_cluster_size",
}

// WriteCSV writes detections to w in the original pipeline's CSV export
// format.
func WriteCSV(w io.Writer, detections []Detection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range detections {
		row := []string{
			d.Tile,
			d.ID,
			d.File,
			strconv.FormatFloat(d.X, 'f', -1, 64),
			strconv.FormatFloat(d.Y, 'f', -1, 64),
			strconv.Itoa(d.AreaCells),
			strconv.FormatFloat(d.AreaM2, 'f', -1, 64),
			strconv.FormatFloat(d.HagMean, 'f', -1, 64),
			strconv.FormatFloat(d.HagMax, 'f', -1, 64),
			strconv.FormatFloat(d.Circularity, 'f', -1, 64),
			strconv.FormatFloat(d.Solidity, 'f', -1, 64),
			d.DedupeClusterID,
			"",
		}
		if d.DedupeClusterSize > 0 {
			row[12] = strconv.Itoa(d.DedupeClusterSize)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
