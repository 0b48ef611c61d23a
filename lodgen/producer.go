package lodgen

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/config"
)

// Producer turns one source container into one variant at the
// requested fidelity. Implementations must write dstPath on success
// and may leave garbage there on failure, the pipeline overwrites it.
type Producer interface {
	// Available reports whether variants can be produced at all.
	Available() error
	ProduceVariant(ctx context.Context, srcPath, dstPath string, fidelity float32) error
}

// GltfpackProducer shells out to the gltfpack binary. Fidelity maps to
// the simplification ratio (-si); 1.0 keeps full mesh detail.
type GltfpackProducer struct {
	Binary string
}

func NewGltfpackProducer() *GltfpackProducer {
	return &GltfpackProducer{Binary: config.GltfpackBinary()}
}

func (gp *GltfpackProducer) Available() error {
	if _, err := exec.LookPath(gp.Binary); err != nil {
		return errors.Wrapf(err, "gltfpack binary %q not found", gp.Binary)
	}
	return nil
}

func (gp *GltfpackProducer) ProduceVariant(ctx context.Context, srcPath, dstPath string, fidelity float32) error {
	if fidelity <= 0 || fidelity > 1 {
		return errors.Errorf("Fidelity %v out of range (0;1]", fidelity)
	}

	args := []string{"-i", srcPath, "-o", dstPath}
	if fidelity < 1 {
		args = append(args, "-si", fmt.Sprintf("%.3f", fidelity))
	}

	cmd := exec.CommandContext(ctx, gp.Binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "gltfpack failed (fidelity %.2f): %s", fidelity, string(out))
	}
	return nil
}
