package regions

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseBed reads the regions of a BED file, keyed by chromosome, each slice
// sorted and flattened. See https://genome.ucsc.edu/FAQ/FAQformat.html#format1
// Only the first three columns are used.
func ParseBed(r io.Reader) (map[string][]Interval, error) {
	regions := make(map[string][]Interval)

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 ||
			strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") ||
			strings.HasPrefix(line, "browser") {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) < 3 {
			data = strings.Fields(line)
		}
		if len(data) < 3 {
			return nil, fmt.Errorf("invalid bed line %d: expected at least 3 columns", lineNumber)
		}
		start, err := strconv.Atoi(data[1])
		if err != nil {
			return nil, fmt.Errorf("invalid start on bed line %d: %w", lineNumber, err)
		}
		end, err := strconv.Atoi(data[2])
		if err != nil {
			return nil, fmt.Errorf("invalid end on bed line %d: %w", lineNumber, err)
		}
		if start < 0 {
			return nil, fmt.Errorf("invalid bed line %d: negative start %d", lineNumber, start)
		}
		if end < start {
			return nil, fmt.Errorf("invalid bed line %d: end %d before start %d", lineNumber, end, start)
		}
		regions[data[0]] = append(regions[data[0]], Interval{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// make sure bed regions are sorted and disjoint
	for chrom, intervals := range regions {
		SortByStart(intervals)
		regions[chrom] = Flatten(intervals)
	}

	return regions, nil
}
