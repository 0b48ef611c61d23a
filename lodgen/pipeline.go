package lodgen

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/asset"
	"github.com/meshpipe/lodviewer/config"
	"github.com/meshpipe/lodviewer/status"
	"github.com/meshpipe/lodviewer/vfs"
)

// Pipeline produces every LOD level of an asset strictly sequentially.
// Levels always come out in ascending-fidelity order; a failed level is
// backfilled with the source bytes so the set never has gaps.
type Pipeline struct {
	store    *asset.Store
	producer Producer

	// bounds how many uploads may generate at the same time
	sem chan struct{}

	mu      sync.Mutex
	cancels map[asset.Id]context.CancelFunc
}

func NewPipeline(store *asset.Store, producer Producer) *Pipeline {
	return &Pipeline{
		store:    store,
		producer: producer,
		sem:      make(chan struct{}, config.MaxConcurrentIntakes()),
		cancels:  make(map[asset.Id]context.CancelFunc),
	}
}

// Cancel aborts an in-flight generation for the asset, if any.
func (p *Pipeline) Cancel(id asset.Id) bool {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (p *Pipeline) register(id asset.Id, cancel context.CancelFunc) {
	p.mu.Lock()
	p.cancels[id] = cancel
	p.mu.Unlock()
}

func (p *Pipeline) unregister(id asset.Id) {
	p.mu.Lock()
	delete(p.cancels, id)
	p.mu.Unlock()
}

// Generate builds, persists and returns the asset's variant set.
func (p *Pipeline) Generate(ctx context.Context, a *asset.Asset) (*asset.VariantSet, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "Intake queue wait aborted")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.register(a.Id, cancel)
	defer p.unregister(a.Id)

	srcPath, err := p.store.AbsPath(a.SourceFileName())
	if err != nil {
		p.cleanup(a, -1)
		return nil, err
	}

	set := &asset.VariantSet{Asset: *a}

	if stats, err := asset.Inspect(srcPath); err != nil {
		log.Printf("[lodgen] inspect of %q failed: %v", a.Id, err)
	} else {
		set.Stats = stats
	}

	if err := p.producer.Available(); err != nil {
		// degraded set: the source asset itself is the only level
		log.Printf("[lodgen] producer unavailable, serving source only for %q: %v", a.Id, err)
		status.Error("LOD tool unavailable, %s will be served at full size only", a.DisplayName)
		if err := p.copySource(a, 0); err != nil {
			p.cleanup(a, 0)
			return nil, err
		}
		set.Variants = []asset.Variant{{Index: 0, Fidelity: 1.0, Outcome: asset.OutcomeSource}}
		if err := p.store.SaveSet(set); err != nil {
			p.cleanup(a, 0)
			return nil, err
		}
		return set, nil
	}

	fidelities := config.LevelFidelities()
	for i, fidelity := range fidelities {
		if err := ctx.Err(); err != nil {
			p.cleanup(a, i)
			return nil, errors.Wrapf(err, "Generation of %q cancelled at level %d", a.Id, i)
		}

		status.Level(string(a.Id), i, "producing", float32(i)/float32(len(fidelities)),
			"Producing level %d of %s (fidelity %.0f%%)", i, a.DisplayName, fidelity*100)

		variant, err := p.produceLevel(ctx, a, i, fidelity, srcPath)
		if err != nil {
			p.cleanup(a, i)
			return nil, err
		}
		set.Variants = append(set.Variants, *variant)

		status.Level(string(a.Id), i, string(variant.Outcome), float32(i+1)/float32(len(fidelities)),
			"Level %d of %s ready", i, a.DisplayName)
	}

	if err := p.store.SaveSet(set); err != nil {
		p.cleanup(a, len(fidelities)-1)
		return nil, err
	}
	status.Info("Model %s ready (%d levels)", a.DisplayName, len(set.Variants))
	return set, nil
}

// produceLevel runs the external tool for one level, substituting the
// source bytes when the tool fails. Only a cancelled context is a hard
// error here.
func (p *Pipeline) produceLevel(ctx context.Context, a *asset.Asset, index int, fidelity float32, srcPath string) (*asset.Variant, error) {
	dstPath, err := p.store.AbsPath(asset.VariantFileName(a.Id, index))
	if err != nil {
		return nil, err
	}

	levelCtx, cancel := context.WithTimeout(ctx, config.ProduceTimeout())
	defer cancel()

	start := time.Now()
	err = p.producer.ProduceVariant(levelCtx, srcPath, dstPath, fidelity)
	if err == nil {
		log.Printf("[lodgen] %q level %d packed in %v", a.Id, index, time.Since(start))
		return &asset.Variant{Index: index, Fidelity: fidelity, Outcome: asset.OutcomePacked}, nil
	}

	if ctx.Err() != nil {
		return nil, errors.Wrapf(ctx.Err(), "Generation of %q cancelled at level %d", a.Id, index)
	}

	log.Printf("[lodgen] %q level %d failed, falling back to source copy: %v", a.Id, index, err)
	status.Error("Level %d of %s failed, using original instead", index, a.DisplayName)

	if err := p.copySource(a, index); err != nil {
		return nil, err
	}
	return &asset.Variant{Index: index, Fidelity: fidelity, Outcome: asset.OutcomeFallback}, nil
}

func (p *Pipeline) copySource(a *asset.Asset, index int) error {
	src, err := p.store.Dir().GetFile(a.SourceFileName())
	if err != nil {
		return errors.Wrapf(err, "Source of %q disappeared", a.Id)
	}
	r, err := vfs.OpenFileAndGetReader(src, true)
	if err != nil {
		return err
	}
	defer src.Close()

	name := asset.VariantFileName(a.Id, index)
	if err := vfs.CreateFileAndCopy(p.store.Dir(), name, r); err != nil {
		return errors.Wrapf(err, "Failed to backfill level %d of %q", index, a.Id)
	}
	return nil
}

// cleanup removes everything stored for the asset after a failed or
// cancelled generation: no metadata exists yet, so the source would
// otherwise be orphaned with no way to delete it through the API.
func (p *Pipeline) cleanup(a *asset.Asset, upto int) {
	for i := 0; i <= upto; i++ {
		p.store.Dir().Remove(asset.VariantFileName(a.Id, i))
	}
	p.store.Dir().Remove(a.SourceFileName())
}
