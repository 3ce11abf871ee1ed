package database

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// WriteUsageCSV writes usage records as "scope,trigger,count,last_used"
// lines, last_used being a unix timestamp or 0 when unknown. Records are ordered by trigger.
func WriteUsageCSV(out io.Writer, usage map[string]*Usage) error {
	triggers := make([]string, 0, len(usage))
	for trigger := range usage {
		triggers = append(triggers, trigger)
	}
	sort.Strings(triggers)

	w := csv.NewWriter(out)
	for _, trigger := range triggers {
		u := usage[trigger]
		var lastUsed int64
		if !u.LastUsed.IsZero() {
			lastUsed = u.LastUsed.Unix()
		}
		record := []string{u.Scope, u.Trigger, strconv.Itoa(u.Count), strconv.FormatInt(lastUsed, 10)}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadUsageCSV reads records written by WriteUsageCSV. The last_used field
// is optional.
func ReadUsageCSV(in io.Reader) ([]*Usage, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	var usage []*Usage
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 3 && len(record) != 4 {
			return nil, fmt.Errorf("expecting 3 or 4 fields in CSV record, got %d", len(record))
		}

		count, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("unable to convert count %s: %w", record[2], err)
		}

		u := &Usage{Scope: record[0], Trigger: record[1], Count: count}
		if len(record) == 4 {
			ts, err := strconv.ParseInt(record[3], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unable to convert last_used %s: %w", record[3], err)
			}
			if ts != 0 {
				u.LastUsed = time.Unix(ts, 0)
			}
		}
		usage = append(usage, u)
	}

	return usage, nil
}
