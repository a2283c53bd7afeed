// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import (
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// runFilePattern names the temporary run files the external sorts write
// into their scratch directory. Once all of a sort's runs are written, the
// sort removes them when it returns, whether or not the merge succeeded.
const runFilePattern = "run_%05d.bin"

// SortInputRecords implements Phase 2: an external k-way merge
// sort of the fixed-size records in in, ordered by OutpointKey, using at
// most recordsPerRun records of in-memory buffer per sorted run. It never
// holds more than one run's worth of records in memory at once.
func SortInputRecords(in io.Reader, out io.Writer, scratchDir string, recordsPerRun int) error {
	runPaths, err := writeSortedInputRuns(in, scratchDir, recordsPerRun)
	if err != nil {
		return err
	}
	defer cleanupRuns(runPaths)

	return mergeInputRuns(runPaths, out)
}

func writeSortedInputRuns(in io.Reader, scratchDir string, recordsPerRun int) ([]string, error) {
	var runPaths []string
	runIdx := 0

	for {
		buf := make([]InputRecord, 0, recordsPerRun)
		for len(buf) < recordsPerRun {
			rec, err := DecodeInputRecord(in)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("phase 2: reading input record: %w", err)
			}
			buf = append(buf, rec)
		}
		if len(buf) == 0 {
			break
		}

		sort.Slice(buf, func(i, j int) bool { return buf[i].SortKey().Less(buf[j].SortKey()) })

		path := filepath.Join(scratchDir, fmt.Sprintf(runFilePattern, runIdx))
		if err := writeInputRun(path, buf); err != nil {
			return nil, err
		}
		runPaths = append(runPaths, path)
		runIdx++

		if len(buf) < recordsPerRun {
			break
		}
	}

	return runPaths, nil
}

func writeInputRun(path string, records []InputRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sort run %s: %w", path, err)
	}
	defer f.Close()
	for _, rec := range records {
		if err := rec.Encode(f); err != nil {
			return fmt.Errorf("writing sort run %s: %w", path, err)
		}
	}
	return nil
}

type inputRunHead struct {
	rec    InputRecord
	source *os.File
	runIdx int
}

type inputRunHeap []*inputRunHead

func (h inputRunHeap) Len() int { return len(h) }
func (h inputRunHeap) Less(i, j int) bool {
	return h[i].rec.SortKey().Less(h[j].rec.SortKey())
}
func (h inputRunHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *inputRunHeap) Push(x any)        { *h = append(*h, x.(*inputRunHead)) }
func (h *inputRunHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeInputRuns performs the K-way merge step of Phase 2 over already
// individually-sorted run files.
func mergeInputRuns(runPaths []string, out io.Writer) error {
	files := make([]*os.File, len(runPaths))
	defer func() {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
	}()

	h := make(inputRunHeap, 0, len(runPaths))
	for i, path := range runPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening sort run %s: %w", path, err)
		}
		files[i] = f

		rec, err := DecodeInputRecord(f)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %s: %w", path, err)
		}
		h = append(h, &inputRunHead{rec: rec, source: f, runIdx: i})
	}
	heap.Init(&h)

	for h.Len() > 0 {
		head := heap.Pop(&h).(*inputRunHead)
		if err := head.rec.Encode(out); err != nil {
			return fmt.Errorf("writing merged output: %w", err)
		}

		next, err := DecodeInputRecord(head.source)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %d: %w", head.runIdx, err)
		}
		heap.Push(&h, &inputRunHead{rec: next, source: head.source, runIdx: head.runIdx})
	}

	return nil
}

func cleanupRuns(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

// SortOutputRecords implements the output-record half of Phase 3→4's
// external sort: a length-prefixed-record external merge sort by
// OutpointKey, structured identically to SortInputRecords but over
// variable-length records.
func SortOutputRecords(in io.Reader, out io.Writer, scratchDir string, recordsPerRun int) error {
	runPaths, err := writeSortedOutputRuns(in, scratchDir, recordsPerRun)
	if err != nil {
		return err
	}
	defer cleanupRuns(runPaths)
	return mergeOutputRuns(runPaths, out)
}

func writeSortedOutputRuns(in io.Reader, scratchDir string, recordsPerRun int) ([]string, error) {
	var runPaths []string
	runIdx := 0

	for {
		buf := make([]OutputRecord, 0, recordsPerRun)
		for len(buf) < recordsPerRun {
			rec, err := DecodeOutputRecord(in)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("phase 3 sort: reading output record: %w", err)
			}
			buf = append(buf, rec)
		}
		if len(buf) == 0 {
			break
		}

		sort.Slice(buf, func(i, j int) bool { return buf[i].SortKey().Less(buf[j].SortKey()) })

		path := filepath.Join(scratchDir, fmt.Sprintf(runFilePattern, runIdx))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating sort run %s: %w", path, err)
		}
		for _, rec := range buf {
			if err := rec.Encode(f); err != nil {
				f.Close()
				return nil, fmt.Errorf("writing sort run %s: %w", path, err)
			}
		}
		f.Close()

		runPaths = append(runPaths, path)
		runIdx++
		if len(buf) < recordsPerRun {
			break
		}
	}

	return runPaths, nil
}

type outputRunHead struct {
	rec    OutputRecord
	source *os.File
	runIdx int
}

type outputRunHeap []*outputRunHead

func (h outputRunHeap) Len() int { return len(h) }
func (h outputRunHeap) Less(i, j int) bool {
	return h[i].rec.SortKey().Less(h[j].rec.SortKey())
}
func (h outputRunHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *outputRunHeap) Push(x any)   { *h = append(*h, x.(*outputRunHead)) }
func (h *outputRunHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func mergeOutputRuns(runPaths []string, out io.Writer) error {
	files := make([]*os.File, len(runPaths))
	defer func() {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
	}()

	h := make(outputRunHeap, 0, len(runPaths))
	for i, path := range runPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening sort run %s: %w", path, err)
		}
		files[i] = f

		rec, err := DecodeOutputRecord(f)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %s: %w", path, err)
		}
		h = append(h, &outputRunHead{rec: rec, source: f, runIdx: i})
	}
	heap.Init(&h)

	for h.Len() > 0 {
		head := heap.Pop(&h).(*outputRunHead)
		if err := head.rec.Encode(out); err != nil {
			return fmt.Errorf("writing merged output: %w", err)
		}

		next, err := DecodeOutputRecord(head.source)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %d: %w", head.runIdx, err)
		}
		heap.Push(&h, &outputRunHead{rec: next, source: head.source, runIdx: head.runIdx})
	}

	return nil
}

// SortJoinedRecords implements Phase 5: an external merge sort of
// Phase 4's joined records by JoinedKey instead of OutpointKey, reusing
// the same run/merge shape as the output-record sort.
func SortJoinedRecords(in io.Reader, out io.Writer, scratchDir string, recordsPerRun int) error {
	runPaths, err := writeSortedJoinedRuns(in, scratchDir, recordsPerRun)
	if err != nil {
		return err
	}
	defer cleanupRuns(runPaths)
	return mergeJoinedRuns(runPaths, out)
}

func writeSortedJoinedRuns(in io.Reader, scratchDir string, recordsPerRun int) ([]string, error) {
	var runPaths []string
	runIdx := 0

	for {
		buf := make([]JoinedRecord, 0, recordsPerRun)
		for len(buf) < recordsPerRun {
			rec, err := DecodeJoinedRecord(in)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("phase 5: reading joined record: %w", err)
			}
			buf = append(buf, rec)
		}
		if len(buf) == 0 {
			break
		}

		sort.Slice(buf, func(i, j int) bool { return buf[i].Key.Less(buf[j].Key) })

		path := filepath.Join(scratchDir, fmt.Sprintf(runFilePattern, runIdx))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating sort run %s: %w", path, err)
		}
		for _, rec := range buf {
			if err := rec.Encode(f); err != nil {
				f.Close()
				return nil, fmt.Errorf("writing sort run %s: %w", path, err)
			}
		}
		f.Close()

		runPaths = append(runPaths, path)
		runIdx++
		if len(buf) < recordsPerRun {
			break
		}
	}

	return runPaths, nil
}

type joinedRunHead struct {
	rec    JoinedRecord
	source *os.File
	runIdx int
}

type joinedRunHeap []*joinedRunHead

func (h joinedRunHeap) Len() int { return len(h) }
func (h joinedRunHeap) Less(i, j int) bool {
	return h[i].rec.Key.Less(h[j].rec.Key)
}
func (h joinedRunHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *joinedRunHeap) Push(x any)   { *h = append(*h, x.(*joinedRunHead)) }
func (h *joinedRunHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func mergeJoinedRuns(runPaths []string, out io.Writer) error {
	files := make([]*os.File, len(runPaths))
	defer func() {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
	}()

	h := make(joinedRunHeap, 0, len(runPaths))
	for i, path := range runPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening sort run %s: %w", path, err)
		}
		files[i] = f

		rec, err := DecodeJoinedRecord(f)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %s: %w", path, err)
		}
		h = append(h, &joinedRunHead{rec: rec, source: f, runIdx: i})
	}
	heap.Init(&h)

	for h.Len() > 0 {
		head := heap.Pop(&h).(*joinedRunHead)
		if err := head.rec.Encode(out); err != nil {
			return fmt.Errorf("writing merged output: %w", err)
		}

		next, err := DecodeJoinedRecord(head.source)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading sort run %d: %w", head.runIdx, err)
		}
		heap.Push(&h, &joinedRunHead{rec: next, source: head.source, runIdx: head.runIdx})
	}

	return nil
}
