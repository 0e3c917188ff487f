package topology

import (
	"testing"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/option"
)

func newCtx(t *testing.T, args map[byte]string) *option.Context {
	t.Helper()
	ctx := option.NewContext(option.BuildSchema())
	ctx.Bases.BlockSize = 4096
	ctx.Bases.SectorSize = 512
	for g, arg := range args {
		if err := option.ParseGroup(ctx, g, arg); err != nil {
			t.Fatalf("ParseGroup(%c, %q): %v", g, arg, err)
		}
	}
	return ctx
}

func TestResolveNoDeviceNoUserMeansNoAlign(t *testing.T) {
	ctx := newCtx(t, nil)
	res, err := Resolve(ctx, Info{}, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.NoAlign {
		t.Fatalf("expected NoAlign when neither device nor user supplies stripe geometry")
	}
}

func TestResolveAdoptsDeviceStripeWhenUserSilent(t *testing.T) {
	ctx := newCtx(t, nil)
	dev := Info{StripeUnitBytes: 64 * 1024, StripeWidthBytes: 4 * 64 * 1024}
	res, err := Resolve(ctx, dev, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.NoAlign {
		t.Fatalf("NoAlign must be false when the device reports a stripe")
	}
	if res.Sunit != 128 { // 64KiB / 512
		t.Fatalf("Sunit = %d, want 128", res.Sunit)
	}
	if res.Swidth != 512 { // 128 * 4
		t.Fatalf("Swidth = %d, want 512", res.Swidth)
	}
}

func TestResolveSuSwConversion(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "su=64k,sw=4"})
	res, err := Resolve(ctx, Info{}, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Sunit != 128 {
		t.Fatalf("Sunit = %d, want 128", res.Sunit)
	}
	if res.Swidth != 512 {
		t.Fatalf("Swidth = %d, want 512", res.Swidth)
	}
}

func TestResolveOneSidedSuSwFails(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "su=64k"})
	_, err := Resolve(ctx, Info{}, 4096)
	if err == nil {
		t.Fatalf("expected StripePairIncomplete when only su is given")
	}
	e, ok := mkfserr.As(err)
	if !ok || e.Kind != mkfserr.StripePairIncomplete {
		t.Fatalf("got %v, want StripePairIncomplete", err)
	}
}

func TestResolveOneSidedSunitSwidthFails(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "sunit=128"})
	_, err := Resolve(ctx, Info{}, 4096)
	if err == nil {
		t.Fatalf("expected StripePairIncomplete when only sunit is given")
	}
	e, ok := mkfserr.As(err)
	if !ok || e.Kind != mkfserr.StripePairIncomplete {
		t.Fatalf("got %v, want StripePairIncomplete", err)
	}
}

func TestResolveExplicitZeroSunitSwidthForcesNoAlign(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "sunit=0,swidth=0"})
	res, err := Resolve(ctx, Info{StripeUnitBytes: 64 * 1024, StripeWidthBytes: 4 * 64 * 1024}, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.NoAlign {
		t.Fatalf("explicit sunit=0,swidth=0 must force NoAlign even when the device reports a stripe")
	}
}

func TestResolveUserSunitDisagreesWithDeviceWarnsOnly(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "sunit=64,swidth=256"})
	res, err := Resolve(ctx, Info{StripeUnitBytes: 64 * 1024, StripeWidthBytes: 4 * 64 * 1024}, 4096)
	if err != nil {
		t.Fatalf("Resolve must not fail on a sunit/swidth disagreement, only warn: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning about disagreeing sunit/swidth")
	}
	if res.Sunit != 64 || res.Swidth != 256 {
		t.Fatalf("user-supplied sunit/swidth must win over the device's")
	}
}

func TestResolveSuNotMultipleOfSectorSizeFails(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "su=300,sw=4"})
	if _, err := Resolve(ctx, Info{}, 4096); err == nil {
		t.Fatalf("expected an error when su is not a multiple of the sector size")
	}
}

func TestResolveLogSunitInheritsDataSunit(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "su=64k,sw=4"})
	res, err := Resolve(ctx, Info{}, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.LogSunit != res.Sunit {
		t.Fatalf("LogSunit = %d, want to inherit data Sunit %d", res.LogSunit, res.Sunit)
	}
}

func TestResolveLsuMustBeMultipleOfBlockSize(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'l': "su=6000"})
	if _, err := Resolve(ctx, Info{}, 4096); err == nil {
		t.Fatalf("expected an error when lsu is not a multiple of the block size")
	}
}

func TestResolvePhysicalSectorLargerThanBlockSizeDowngrades(t *testing.T) {
	ctx := newCtx(t, nil)
	dev := Info{PhysicalSectorSize: 8192, LogicalSectorSize: 512}
	res, err := Resolve(ctx, dev, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.SectorSize != 512 {
		t.Fatalf("SectorSize = %d, want downgrade to logical 512", res.SectorSize)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning about the sector-size downgrade")
	}
}

func TestResolveNoAlignFlagForcesNoAlignEvenWithDeviceStripe(t *testing.T) {
	ctx := newCtx(t, map[byte]string{'d': "noalign"})
	res, err := Resolve(ctx, Info{StripeUnitBytes: 64 * 1024, StripeWidthBytes: 4 * 64 * 1024}, 4096)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.NoAlign {
		t.Fatalf("-d noalign must force NoAlign regardless of device-reported stripe")
	}
}
