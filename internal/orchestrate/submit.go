// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// SubmitProcess queues ProcessTheme as a background job.
func (o *Orchestrator) SubmitProcess(inputPath, style string, skipThemeCreation bool) (types.Job, error) {
	if o.Jobs == nil {
		return types.Job{}, ErrNoJobs
	}
	return o.Jobs.Submit(KindProcess, func(ctx context.Context, id string) (string, error) {
		return o.ProcessTheme(ctx, id, inputPath, style, skipThemeCreation)
	})
}

// SubmitTransform queues TransformByID as a background job. The job output
// is the path of the transformed export.
func (o *Orchestrator) SubmitTransform(themeID, style string) (types.Job, error) {
	if o.Jobs == nil {
		return types.Job{}, ErrNoJobs
	}
	return o.Jobs.Submit(KindTransform, func(ctx context.Context, _ string) (string, error) {
		res, err := o.TransformByID(ctx, themeID, style)
		if err != nil {
			return "", err
		}
		return res.OutputPath, nil
	})
}

// SubmitOnePage queues GenerateOnePage as a background job.
func (o *Orchestrator) SubmitOnePage(query, style string) (types.Job, error) {
	if o.Jobs == nil {
		return types.Job{}, ErrNoJobs
	}
	return o.Jobs.Submit(KindOnePage, func(ctx context.Context, id string) (string, error) {
		return o.GenerateOnePage(ctx, id, query, style)
	})
}

// SubmitMultiPage queues GenerateMultiPage as a background job.
func (o *Orchestrator) SubmitMultiPage(query, style string) (types.Job, error) {
	if o.Jobs == nil {
		return types.Job{}, ErrNoJobs
	}
	return o.Jobs.Submit(KindMultiPage, func(ctx context.Context, id string) (string, error) {
		return o.GenerateMultiPage(ctx, id, query, style)
	})
}

// Inputs returns path itself when it is a file, or the *.xml files directly
// inside it, sorted.
func Inputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// RunAll submits one process job per input, waits for all of them and
// returns their final snapshots in input order. Inputs that could not be
// queued come back as failed jobs.
func (o *Orchestrator) RunAll(ctx context.Context, inputs []string, style string, skipThemeCreation bool) ([]types.Job, error) {
	if o.Jobs == nil {
		return nil, ErrNoJobs
	}
	queued := make([]types.Job, len(inputs))
	for i, in := range inputs {
		job, err := o.SubmitProcess(in, style, skipThemeCreation)
		if err != nil {
			job = types.Job{Kind: KindProcess, Status: types.JobFailed, Error: fmt.Sprintf("%s: %v", in, err)}
		}
		queued[i] = job
	}
	if err := o.Jobs.Wait(ctx); err != nil {
		return nil, err
	}
	for i, job := range queued {
		if job.ID == "" {
			continue
		}
		final, err := o.Jobs.Get(job.ID)
		if err != nil {
			return nil, err
		}
		queued[i] = final
	}
	return queued, nil
}
