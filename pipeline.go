package forecastbridge

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aouyang1/go-forecastbridge/convert"
	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/kwargs"
	"github.com/aouyang1/go-forecastbridge/validate"
	"github.com/sirupsen/logrus"
)

// Pipeline phases, logged with every call.
const (
	phaseAccept    = "accept"
	phaseTranslate = "translate"
	phaseDelegate  = "delegate"
	phaseEmit      = "emit"
)

// acceptFunc turns the caller's input into the engine value the call is made on.
type acceptFunc func(x any) (engine.Object, convert.Origin, error)

// prepareFunc checks and completes the host arguments once the input is known.
type prepareFunc func(x engine.Object, args kwargs.Args) error

// call is one trip through Accept, Translate, Delegate and Emit.
type call struct {
	fn      string
	x       any
	args    kwargs.Args
	kind    convert.ResultKind
	accept  acceptFunc
	prepare prepareFunc
}

// recognize classifies x at the boundary and fails with ErrType unless it is one of kinds.
func recognize(x any, want string, kinds ...validate.Kind) (validate.Value, error) {
	v, err := validate.Recognize(x)
	if err != nil || !slices.Contains(kinds, v.Kind) {
		return validate.Value{}, fmt.Errorf("%T must be %s, %w", x, want, errdefs.ErrType)
	}
	return v, nil
}

func acceptSeries(x any) (engine.Object, convert.Origin, error) {
	v, err := recognize(x, "a native series or external time-series value",
		validate.KindHostSeries, validate.KindEngineTimeSeries)
	if err != nil {
		return nil, 0, err
	}
	if v.Kind == validate.KindEngineTimeSeries {
		return v.Engine, convert.OriginEngine, nil
	}
	ts, err := convert.ToExternal(v.Series)
	if err != nil {
		return nil, 0, err
	}
	return ts, convert.OriginHost, nil
}

func acceptDecomposition(x any) (engine.Object, convert.Origin, error) {
	v, err := recognize(x, "a native or external decomposition",
		validate.KindHostDecomposition, validate.KindEngineDecomposition)
	if err != nil {
		return nil, 0, err
	}
	if v.Kind == validate.KindEngineDecomposition {
		return v.Engine, convert.OriginEngine, nil
	}
	stl, err := convert.FromDecompositionTable(v.Table)
	if err != nil {
		return nil, 0, err
	}
	return stl, convert.OriginHost, nil
}

// delegate runs every phase but Emit. Engine errors are returned as they are.
func (b *Bridge) delegate(ctx context.Context, c *call) (engine.Object, convert.Origin, *logrus.Entry, error) {
	log := b.opt.Logger.WithField("method", c.fn)

	accept := c.accept
	if accept == nil {
		accept = acceptSeries
	}
	x, origin, err := accept(c.x)
	if err != nil {
		log.WithError(err).WithField("phase", phaseAccept).Debug("input rejected")
		return nil, 0, log, err
	}
	log = log.WithField("origin", origin.String())

	args := maps.Clone(c.args)
	if args == nil {
		args = kwargs.Args{}
	}
	if c.prepare != nil {
		if err := c.prepare(x, args); err != nil {
			log.WithError(err).WithField("phase", phaseAccept).Debug("arguments rejected")
			return nil, 0, log, err
		}
	}
	if h, exists := args["h"]; exists {
		log = log.WithField("horizon", h)
	}
	log.WithField("phase", phaseAccept).Debug("input accepted")

	kw, err := kwargs.Translate(args)
	if err != nil {
		log.WithError(err).WithField("phase", phaseTranslate).Debug("arguments not translatable")
		return nil, 0, log, err
	}
	log.WithField("phase", phaseTranslate).Debug("arguments translated")

	out, err := b.eng.Call(ctx, c.fn, x, kw)
	if err != nil {
		log.WithError(err).WithField("phase", phaseDelegate).Debug("engine call failed")
		return nil, 0, log, err
	}
	log.WithField("phase", phaseDelegate).Debug("engine call returned")
	return out, origin, log, nil
}

// run takes a call through all four phases and returns the result in the input's form.
func (b *Bridge) run(ctx context.Context, c *call) (convert.Result, error) {
	out, origin, log, err := b.delegate(ctx, c)
	if err != nil {
		return convert.Result{}, err
	}
	res, err := convert.EmitLikeOrigin(out, origin, c.kind)
	if err != nil {
		log.WithError(err).WithField("phase", phaseEmit).Debug("result not convertible")
		return convert.Result{}, err
	}
	log.WithField("phase", phaseEmit).Debug("result emitted")
	return res, nil
}

// scalar runs a call whose result is a single number, which is the same in either form.
func (b *Bridge) scalar(ctx context.Context, c *call) (float64, error) {
	out, _, log, err := b.delegate(ctx, c)
	if err != nil {
		return 0, err
	}
	v, ok := out.(engine.Vector)
	if !ok {
		err := fmt.Errorf("%s returned %T, not a number, %w", c.fn, out, errdefs.ErrInvalidArgument)
		log.WithError(err).WithField("phase", phaseEmit).Debug("result not convertible")
		return 0, err
	}
	f, ok := v.Scalar()
	if !ok {
		err := fmt.Errorf("%s returned an empty vector, %w", c.fn, errdefs.ErrInvalidArgument)
		log.WithError(err).WithField("phase", phaseEmit).Debug("result not convertible")
		return 0, err
	}
	log.WithField("phase", phaseEmit).Debug("result emitted")
	return f, nil
}
