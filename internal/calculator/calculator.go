package calculator

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"gc-distance/gc"
	"gc-distance/internal/batch"
	"gc-distance/internal/models"
)

type ProgressCallback func(current, total int, msg string)
type LoggerCallback func(msg string)

// candidates holds the valid POS rows as parallel coordinate columns, ready
// to be broadcast against a single customer.
type candidates struct {
	pos  []models.Customer
	lats []float64
	lons []float64
}

func newCandidates(posList []models.Customer) candidates {
	var c candidates
	for _, p := range posList {
		if !p.Valid {
			continue
		}
		c.pos = append(c.pos, p)
		c.lats = append(c.lats, p.Loc.Lat)
		c.lons = append(c.lons, p.Loc.Lon)
	}
	return c
}

// distancesFrom measures from src to every candidate in one broadcast call.
func (c candidates) distancesFrom(ctx context.Context, src models.Coordinate, opts gc.Options) (*gc.DistanceResult, error) {
	opts.Workers = 1 // callers already fan out over customers
	return gc.GreatDistance(ctx, gc.DistanceParams{
		StartLatitude:  batch.Scalar(src.Lat),
		StartLongitude: batch.Scalar(src.Lon),
		EndLatitude:    batch.Dense(c.lats),
		EndLongitude:   batch.Dense(c.lons),
		Options:        opts,
	})
}

func resultRow(src, p models.Customer) models.ResultRow {
	return models.ResultRow{
		KaccID:    src.ID,
		KaccName:  src.Name,
		KaccLat:   src.Loc.Lat,
		KaccLon:   src.Loc.Lon,
		KaccValid: src.Valid,
		PosID:     p.ID,
		PosName:   p.Name,
		PosLat:    p.Loc.Lat,
		PosLon:    p.Loc.Lon,
	}
}

func workerCount(opts gc.Options) int {
	if opts.Workers > 0 {
		return opts.Workers
	}
	return runtime.NumCPU()
}

// ComputeNearest finds the nearest POS for every customer. Customers without
// valid coordinates get a row with Found == false.
func ComputeNearest(ctx context.Context, kaccList []models.Customer, posList []models.Customer, opts gc.Options, onProgress ProgressCallback, logger LoggerCallback) ([]models.ResultRow, error) {
	cands := newCandidates(posList)
	if len(kaccList) == 0 || len(cands.pos) == 0 {
		return nil, fmt.Errorf("empty input lists")
	}

	total := len(kaccList)
	results := make([]models.ResultRow, total)

	numCPU := workerCount(opts)
	chunkSize := (total + numCPU - 1) / numCPU

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var processedCount int64 = 0
	var firstErr error
	var errOnce sync.Once

	logger(fmt.Sprintf("Starting parallel processing with %d workers, %d customers, %d POS", numCPU, len(kaccList), len(cands.pos)))

	for i := 0; i < numCPU; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()

			for idx := s; idx < e; idx++ {
				source := kaccList[idx]
				if !source.Valid {
					results[idx] = resultRow(source, models.Customer{})
					continue
				}

				gd, err := cands.distancesFrom(ctx, source.Loc, opts)
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("customer %s (row %d): %w", source.ID, source.RowIndex, err)
						cancel()
					})
					return
				}

				nearestIdx := 0
				minDist := math.MaxFloat64
				for pIdx, d := range gd.Distance.Values {
					if d < minDist {
						minDist = d
						nearestIdx = pIdx
					}
				}

				row := resultRow(source, cands.pos[nearestIdx])
				row.Found = true
				row.Distance = minDist
				row.Azimuth = gd.Azimuth.Values[nearestIdx]
				row.ReverseAzimuth = gd.ReverseAzimuth.Values[nearestIdx]
				results[idx] = row

				// Atomic increment for progress
				count := atomic.AddInt64(&processedCount, 1)
				if count%500 == 0 {
					if onProgress != nil {
						onProgress(int(count), total, "")
					}
				}
			}
		}(start, end)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	// Final progress update
	if onProgress != nil {
		onProgress(total, total, "")
	}

	logger("Calculation completed.")
	return results, nil
}

// ComputeRadius lists every (customer, POS) pair closer than radiusMeters.
func ComputeRadius(ctx context.Context, kaccList []models.Customer, posList []models.Customer, radiusMeters float64, opts gc.Options, onProgress ProgressCallback, logger LoggerCallback) ([]models.ResultRow, error) {
	cands := newCandidates(posList)
	numCPU := workerCount(opts)
	total := len(kaccList)
	if total == 0 {
		return nil, nil
	}
	chunkSize := (total + numCPU - 1) / numCPU

	type chunkResult struct {
		rows []models.ResultRow
		err  error
	}
	resultChan := make(chan chunkResult, numCPU)
	var wg sync.WaitGroup

	logger(fmt.Sprintf("Starting Radius search (%.0fm) with %d workers", radiusMeters, numCPU))

	for i := 0; i < numCPU; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			var localRes []models.ResultRow

			for idx := s; idx < e; idx++ {
				src := kaccList[idx]
				if !src.Valid || len(cands.pos) == 0 {
					continue
				}

				gd, err := cands.distancesFrom(ctx, src.Loc, opts)
				if err != nil {
					resultChan <- chunkResult{err: fmt.Errorf("customer %s (row %d): %w", src.ID, src.RowIndex, err)}
					return
				}
				for pIdx, d := range gd.Distance.Values {
					if d <= radiusMeters {
						row := resultRow(src, cands.pos[pIdx])
						row.Found = true
						row.Distance = d
						row.Azimuth = gd.Azimuth.Values[pIdx]
						row.ReverseAzimuth = gd.ReverseAzimuth.Values[pIdx]
						localRes = append(localRes, row)
					}
				}
			}
			resultChan <- chunkResult{rows: localRes}
		}(start, end)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var allResults []models.ResultRow
	var firstErr error
	processedChunks := 0

	for resChunk := range resultChan {
		if resChunk.err != nil {
			if firstErr == nil {
				firstErr = resChunk.err
			}
			continue
		}
		allResults = append(allResults, resChunk.rows...)
		processedChunks++
		if onProgress != nil {
			onProgress(min(processedChunks*chunkSize, total), total, "")
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	logger("Radius calculation completed.")
	return allResults, nil
}

// ComputeDestinations solves the direct problem for every waypoint in a
// single masked batch; rows with unparsable input come back with
// Found == false.
func ComputeDestinations(ctx context.Context, waypoints []models.Waypoint, opts gc.Options, logger LoggerCallback) ([]models.DestinationRow, error) {
	n := len(waypoints)
	dist := make([]float64, n)
	azi := make([]float64, n)
	lats := make([]float64, n)
	lons := make([]float64, n)
	valid := make([]bool, n)
	for i, w := range waypoints {
		dist[i], azi[i] = w.Distance, w.Azimuth
		lats[i], lons[i] = w.Start.Lat, w.Start.Lon
		valid[i] = w.Valid
	}

	logger(fmt.Sprintf("Starting destination batch with %d waypoints", n))

	res, err := gc.GreatCircle(ctx, gc.CircleParams{
		Distance:  batch.Masked(dist, valid),
		Azimuth:   batch.Masked(azi, valid),
		Latitude:  batch.Masked(lats, valid),
		Longitude: batch.Masked(lons, valid),
		Options:   opts,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]models.DestinationRow, n)
	for i, w := range waypoints {
		rows[i].Waypoint = w
		lat, ok := res.Latitude.At(i)
		if !ok {
			continue
		}
		lon, _ := res.Longitude.At(i)
		baz, _ := res.ReverseAzimuth.At(i)
		rows[i].Found = true
		rows[i].Dest = models.Coordinate{Lat: lat, Lon: lon}
		rows[i].ReverseAzimuth = baz
	}

	logger("Destination calculation completed.")
	return rows, nil
}
