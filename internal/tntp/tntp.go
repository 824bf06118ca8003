// Package tntp reads the TNTP network triplet (net, node, trips files)
// into a graph.Network. It is an external collaborator of the solver core:
// parsing happens once, before the driver starts, and any malformed input
// is a terminal NetworkReadError.
package tntp

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

const endOfMetadata = "<END OF METADATA>"

// Options controls network loading.
type Options struct {
	// Bidirectional materialises every net-file edge in the reverse
	// direction as well, with identical parameters.
	Bidirectional bool

	// DemandScale multiplies every trip-file demand on load. Zero means 1.
	DemandScale float64
}

// Load reads the triplet from dir. Files are located by suffix
// (*_net.tntp, *_node.tntp, *_trips.tntp); the node file is optional and
// when absent nodes are synthesised at (0,0). name becomes the network's
// display name.
func Load(dir, name string, opts Options) (*graph.Network, error) {
	netPath, err := findBySuffix(dir, "_net.tntp")
	if err != nil {
		return nil, err
	}
	tripsPath, err := findBySuffix(dir, "_trips.tntp")
	if err != nil {
		return nil, err
	}
	nodePath, _ := findBySuffix(dir, "_node.tntp") // optional

	if name == "" {
		name = filepath.Base(dir)
	}
	network := graph.NewNetwork(name)

	nodeCount, edges, err := parseNetFile(netPath)
	if err != nil {
		return nil, err
	}

	coords := map[int64][2]float64{}
	if nodePath != "" {
		coords, err = parseNodeFile(nodePath)
		if err != nil {
			return nil, err
		}
	}

	for id := int64(1); id <= int64(nodeCount); id++ {
		xy := coords[id]
		network.AddNode(&graph.Node{ID: id, X: xy[0], Y: xy[1]})
	}

	for _, e := range edges {
		network.AddEdge(e)
		if opts.Bidirectional {
			if _, exists := network.Edge(e.Head, e.Tail); !exists {
				reverse := e.Clone()
				reverse.Tail, reverse.Head = e.Head, e.Tail
				network.AddEdge(reverse)
			}
		}
	}

	scale := opts.DemandScale
	if scale == 0 {
		scale = 1
	}
	if err := parseTripsFile(tripsPath, network, scale); err != nil {
		return nil, err
	}

	return network, nil
}

// findBySuffix returns the single file in dir ending with suffix, or a
// MissingFile error.
func findBySuffix(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeMissingFile, "cannot read network directory").
			WithDetails("dir", dir)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", apperror.New(apperror.CodeMissingFile, "no file with required suffix").
		WithDetails("dir", dir).WithDetails("suffix", suffix)
}

// parseNetFile reads the header block and edge rows. Edge ids are assigned
// 1..M in file order by Network.AddEdge; the declared link count is
// checked against the rows actually read.
func parseNetFile(path string) (int, []*graph.Edge, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, nil, apperror.Wrap(err, apperror.CodeMissingFile, "cannot open net file").WithDetails("path", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	nodeCount, linkCount := 0, 0
	inMetadata := true
	lineNo := 0
	var edges []*graph.Edge

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if inMetadata {
			switch {
			case strings.Contains(line, endOfMetadata):
				inMetadata = false
			case strings.HasPrefix(line, "<NUMBER OF NODES>"):
				nodeCount = parseMetadataInt(line)
			case strings.HasPrefix(line, "<NUMBER OF LINKS>"):
				linkCount = parseMetadataInt(line)
			}
			continue
		}

		// The column-header row is marked with a tilde.
		if strings.Contains(line, "~") {
			continue
		}

		fields := strings.Fields(strings.TrimSuffix(line, ";"))
		if len(fields) < 7 {
			return 0, nil, apperror.New(apperror.CodeMalformedRow, "net row needs at least 7 fields").
				WithDetails("path", path).WithDetails("line", lineNo)
		}

		values := make([]float64, 7)
		for i := 0; i < 7; i++ {
			v, err := strconv.ParseFloat(strings.TrimSuffix(fields[i], ";"), 64)
			if err != nil {
				return 0, nil, apperror.Wrap(err, apperror.CodeMalformedRow, "net row field is not numeric").
					WithDetails("path", path).WithDetails("line", lineNo).WithDetails("field", i)
			}
			values[i] = v
		}

		edges = append(edges, &graph.Edge{
			Tail:         int64(values[0]),
			Head:         int64(values[1]),
			Capacity:     values[2],
			Length:       values[3],
			FreeFlowTime: values[4],
			B:            values[5],
			Power:        values[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, apperror.Wrap(err, apperror.CodeMalformedRow, "reading net file").WithDetails("path", path)
	}

	if inMetadata {
		return 0, nil, apperror.New(apperror.CodeMalformedHeader, "net file has no <END OF METADATA> marker").
			WithDetails("path", path)
	}
	if nodeCount <= 0 {
		return 0, nil, apperror.New(apperror.CodeMalformedHeader, "net file is missing <NUMBER OF NODES>").
			WithDetails("path", path)
	}
	if linkCount > 0 && linkCount != len(edges) {
		return 0, nil, apperror.New(apperror.CodeMalformedHeader, "declared link count does not match rows").
			WithDetails("path", path).WithDetails("declared", linkCount).WithDetails("read", len(edges))
	}

	return nodeCount, edges, nil
}

// parseNodeFile reads id/x/y rows. Non-numeric first tokens (the optional
// column header) are skipped.
func parseNodeFile(path string) (map[int64][2]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMissingFile, "cannot open node file").WithDetails("path", path)
	}
	defer file.Close()

	coords := make(map[int64][2]float64)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(line, ";"))
		if len(fields) < 3 {
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue // header row
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeMalformedRow, "node x is not numeric").
				WithDetails("path", path).WithDetails("line", lineNo)
		}
		y, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], ";"), 64)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeMalformedRow, "node y is not numeric").
				WithDetails("path", path).WithDetails("line", lineNo)
		}
		coords[id] = [2]float64{x, y}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMalformedRow, "reading node file").WithDetails("path", path)
	}
	return coords, nil
}

// parseTripsFile reads Origin blocks of semicolon-separated "d : demand"
// entries. Demand <= 0 after scaling is silently dropped, as are
// origin==destination entries.
func parseTripsFile(path string, network *graph.Network, scale float64) error {
	file, err := os.Open(path)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeMissingFile, "cannot open trips file").WithDetails("path", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inMetadata := true
	var origin int64
	haveOrigin := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if inMetadata {
			if strings.Contains(line, endOfMetadata) {
				inMetadata = false
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "Origin"); ok {
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				return apperror.New(apperror.CodeMalformedRow, "Origin line has no id").
					WithDetails("path", path).WithDetails("line", lineNo)
			}
			o, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return apperror.Wrap(err, apperror.CodeMalformedRow, "origin id is not numeric").
					WithDetails("path", path).WithDetails("line", lineNo)
			}
			origin = o
			haveOrigin = true
			continue
		}

		if !haveOrigin {
			return apperror.New(apperror.CodeMalformedRow, "demand entry before any Origin block").
				WithDetails("path", path).WithDetails("line", lineNo)
		}

		for _, entry := range strings.Split(line, ";") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			dest, demand, err := parseTripEntry(entry)
			if err != nil {
				return apperror.Wrap(err, apperror.CodeMalformedRow, "malformed trip entry").
					WithDetails("path", path).WithDetails("line", lineNo).WithDetails("entry", entry)
			}
			demand *= scale
			if demand <= 0 || dest == origin {
				continue
			}
			network.AddOD(&graph.OD{O: origin, D: dest, Demand: demand})
		}
	}
	if err := scanner.Err(); err != nil {
		return apperror.Wrap(err, apperror.CodeMalformedRow, "reading trips file").WithDetails("path", path)
	}

	if inMetadata {
		return apperror.New(apperror.CodeMalformedHeader, "trips file has no <END OF METADATA> marker").
			WithDetails("path", path)
	}
	return nil
}

// parseTripEntry splits one "d : demand" pair.
func parseTripEntry(entry string) (int64, float64, error) {
	destStr, demandStr, found := strings.Cut(entry, ":")
	if !found {
		return 0, 0, apperror.New(apperror.CodeMalformedRow, "trip entry has no ':' separator")
	}
	dest, err := strconv.ParseInt(strings.TrimSpace(destStr), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	demand, err := strconv.ParseFloat(strings.TrimSpace(demandStr), 64)
	if err != nil {
		return 0, 0, err
	}
	return dest, demand, nil
}

// parseMetadataInt pulls the integer after a <KEY> tag.
func parseMetadataInt(line string) int {
	if idx := strings.LastIndex(line, ">"); idx >= 0 {
		if v, err := strconv.Atoi(strings.TrimSpace(line[idx+1:])); err == nil {
			return v
		}
	}
	return 0
}
