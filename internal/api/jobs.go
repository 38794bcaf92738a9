package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"gc-distance/gc"
	"gc-distance/internal/calculator"
	"gc-distance/internal/config"
	"gc-distance/internal/excel"
	"gc-distance/internal/jobs"
	"gc-distance/internal/logger"
	"gc-distance/internal/models"
)

// Job modes accepted by POST /run.
const (
	ModeNearest     = "nearest"
	ModeRadius      = "radius"
	ModeDestination = "destination"
)

const resultSheet = "Sonuclar"

// Runner executes uploaded workbooks as background jobs.
type Runner struct {
	ctx       context.Context
	store     *jobs.Store
	opts      gc.Options
	uploadDir string
	outputDir string
}

// NewRunner creates a Runner whose jobs stop when ctx is done.
func NewRunner(ctx context.Context, cfg *config.Config, store *jobs.Store, opts gc.Options) *Runner {
	return &Runner{
		ctx:       ctx,
		store:     store,
		opts:      opts,
		uploadDir: cfg.UploadDir,
		outputDir: cfg.OutputDir,
	}
}

func (rn *Runner) run() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("input_file")
		if err != nil {
			c.HTML(http.StatusBadRequest, "index.html", gin.H{"Message": "Lütfen bir dosya seçin."})
			return
		}

		mode := c.PostForm("mode")
		var meters float64
		switch mode {
		case ModeNearest, ModeDestination:
		case ModeRadius:
			meters, err = strconv.ParseFloat(strings.ReplaceAll(c.PostForm("meters"), ",", "."), 64)
			if err != nil || meters <= 0 {
				c.HTML(http.StatusBadRequest, "index.html", gin.H{"Message": "Geçerli bir yarıçap (metre) girin."})
				return
			}
		default:
			c.HTML(http.StatusBadRequest, "index.html", gin.H{"Message": "Bilinmeyen mod: " + mode})
			return
		}

		for _, dir := range []string{rn.uploadDir, rn.outputDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Error(err, "create directory failed", "dir", dir)
				c.HTML(http.StatusInternalServerError, "index.html", gin.H{"Message": "Dosya yüklenemedi."})
				return
			}
		}

		inputPath := filepath.Join(rn.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(file.Filename)))
		if err := c.SaveUploadedFile(file, inputPath); err != nil {
			logger.Error(err, "save upload failed", "path", inputPath)
			c.HTML(http.StatusInternalServerError, "index.html", gin.H{"Message": "Dosya yüklenemedi."})
			return
		}

		job, ctx := rn.store.New(rn.ctx)
		logger.Info("job started", "job_id", job.ID, "mode", mode, "file", file.Filename)
		go rn.process(ctx, job, inputPath, mode, meters)

		c.HTML(http.StatusOK, "index.html", gin.H{
			"JobID":   job.ID,
			"Message": "İşlem başlatıldı...",
		})
	}
}

// process runs a job to completion and records the outcome on job.
func (rn *Runner) process(ctx context.Context, job *jobs.Job, inputPath, mode string, meters float64) {
	defer func() {
		if r := recover(); r != nil {
			removeUpload(job, inputPath)
			logger.Error(nil, "job panicked", "job_id", job.ID, "panic", r)
			job.Fail(fmt.Sprintf("Panic: %v", r))
		}
	}()

	job.Log(fmt.Sprintf("Dosya işleniyor: %s", filepath.Base(inputPath)))
	start := time.Now()

	res, err := rn.compute(ctx, job, inputPath, mode, meters)
	removeUpload(job, inputPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			job.Log("İşlem iptal edildi.")
		}
		job.Fail(err.Error())
		return
	}

	job.Finish(res, fmt.Sprintf("İşlem başarıyla tamamlandı. Süre: %s", time.Since(start).Round(time.Millisecond)))
}

func removeUpload(job *jobs.Job, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("remove upload failed", "job_id", job.ID, "error", err)
	}
}

func (rn *Runner) compute(ctx context.Context, job *jobs.Job, inputPath, mode string, meters float64) (*jobs.Result, error) {
	f, err := excel.OpenFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("Excel dosyası açılamadı: %w", err)
	}
	defer f.Close()

	outputPath := filepath.Join(rn.outputDir,
		fmt.Sprintf("%s_%s.xlsx", strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)), mode))
	progress := func(current, total int, msg string) { job.SetProgress(current, total, msg) }

	var rows int
	switch mode {
	case ModeDestination:
		job.Log("Rota sayfası okunuyor...")
		waypoints, err := excel.ReadWaypoints(f, "Rota")
		if err != nil {
			return nil, fmt.Errorf("Rota okuma hatası: %w", err)
		}
		job.Log(fmt.Sprintf("%d adet rota satırı okundu.", len(waypoints)))

		results, err := calculator.ComputeDestinations(ctx, waypoints, rn.opts, job.Log)
		if err != nil {
			return nil, fmt.Errorf("Hesaplama hatası: %w", err)
		}
		job.Log("Sonuç dosyası yazılıyor...")
		if err := excel.WriteDestinations(outputPath, results, resultSheet); err != nil {
			return nil, fmt.Errorf("Yazma hatası: %w", err)
		}
		rows = len(results)

	default:
		kaccList, posList, err := readCustomers(job, f)
		if err != nil {
			return nil, err
		}

		var results []models.ResultRow
		if mode == ModeNearest {
			job.Log("En yakın nokta hesaplanıyor (Mode: Nearest)...")
			results, err = calculator.ComputeNearest(ctx, kaccList, posList, rn.opts, progress, job.Log)
		} else {
			job.Log(fmt.Sprintf("Yarıçap hesaplanıyor (Radius: %.0fm)...", meters))
			results, err = calculator.ComputeRadius(ctx, kaccList, posList, meters, rn.opts, progress, job.Log)
		}
		if err != nil {
			return nil, fmt.Errorf("Hesaplama hatası: %w", err)
		}
		job.Log("Sonuç dosyası yazılıyor...")
		if err := excel.WriteResult(outputPath, results, resultSheet); err != nil {
			return nil, fmt.Errorf("Yazma hatası: %w", err)
		}
		rows = len(results)
	}

	return &jobs.Result{
		Mode:     mode,
		Rows:     rows,
		Sheet:    resultSheet,
		Output:   outputPath,
		Filename: filepath.Base(outputPath),
	}, nil
}

func readCustomers(job *jobs.Job, f *excelize.File) (kacc, pos []models.Customer, err error) {
	job.Log("KACC sayfası okunuyor...")
	kacc, err = excel.ReadSheet(f, "KACC")
	if err != nil {
		return nil, nil, fmt.Errorf("KACC okuma hatası: %w", err)
	}
	job.Log(fmt.Sprintf("%d adet müşteri (KACC) okundu.", len(kacc)))

	job.Log("Pos sayfası okunuyor...")
	pos, err = excel.ReadSheet(f, "Pos")
	if err != nil {
		return nil, nil, fmt.Errorf("Pos okuma hatası: %w", err)
	}
	job.Log(fmt.Sprintf("%d adet nokta (Pos) okundu.", len(pos)))
	return kacc, pos, nil
}

func (rn *Runner) logs() gin.HandlerFunc {
	return func(c *gin.Context) {
		job := rn.store.Get(c.Query("job_id"))
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Job not found"})
			return
		}
		snap := job.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"logs":     snap.Logs,
			"status":   snap.Status,
			"progress": snap.Progress,
		})
	}
}

func (rn *Runner) status() gin.HandlerFunc {
	return func(c *gin.Context) {
		job := rn.store.Get(c.Query("job_id"))
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Job not found"})
			return
		}
		snap := job.Snapshot()
		res := gin.H{
			"ok":       true,
			"status":   snap.Status,
			"progress": snap.Progress,
			"error":    snap.Error,
		}
		if snap.Result != nil {
			res["result"] = snap.Result
		}
		c.JSON(http.StatusOK, res)
	}
}

func (rn *Runner) cancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		job := rn.store.Get(c.Query("job_id"))
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Job not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "canceled": job.Cancel()})
	}
}

func (rn *Runner) download() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Base strips any directory components from the parameter.
		name := filepath.Base(c.Param("filename"))
		target := filepath.Join(rn.outputDir, name)
		if _, err := os.Stat(target); err != nil {
			c.String(http.StatusNotFound, "Dosya bulunamadı")
			return
		}
		c.FileAttachment(target, name)
	}
}

// Prune drops expired jobs together with their result files.
func (rn *Runner) Prune(retention time.Duration) {
	for _, snap := range rn.store.Prune(retention) {
		if snap.Result != nil {
			if err := os.Remove(snap.Result.Output); err != nil && !os.IsNotExist(err) {
				logger.Warn("remove result failed", "job_id", snap.ID, "error", err)
			}
		}
		logger.Debug("job pruned", "job_id", snap.ID)
	}
}
