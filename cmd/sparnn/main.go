package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/sw965/sparnn/logx"
	"github.com/sw965/sparnn/mathx"
	"github.com/sw965/sparnn/mathx/randx"
	"github.com/sw965/sparnn/param"
	"github.com/sw965/sparnn/patch"
	"github.com/sw965/sparnn/tensor"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sparnn <init|patch> [flags]")
	os.Exit(2)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "patch":
		err = runPatch(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

// setup opens the log file when one is given and builds the generator. seed 0 draws from
// the global source.
func setup(logPath, levelTag string, seed uint64) (*logx.Logger, func() error, *rand.Rand, error) {
	level, err := logx.ParseLevel(levelTag)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logx.New(os.Stderr, level)
	closeFn := func() error { return nil }
	if logPath != "" {
		logger, closeFn, err = logx.ConfigureFile(logPath, level)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	rng := randx.New(seed)
	if seed == 0 {
		rng = randx.NewFromGlobalSeed()
	}
	return logger, closeFn, rng, nil
}

// closeLog closes the log file and reports a failure on w.
func closeLog(w io.Writer, closeFn func() error) {
	if err := closeFn(); err != nil {
		logx.New(w, logx.Error).Errorf("closing log file: %v", err)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	schemeTag := fs.String("scheme", "glorot_uniform", "Initialization scheme")
	shapeText := fs.String("shape", "256,128", "Comma separated parameter shape")
	name := fs.String("name", "W", "Parameter name")
	seed := fs.Uint64("seed", randx.DefaultSeed, "Random seed, 0 for a random one")
	out := fs.String("out", "params.gob", "Output path")
	logPath := fs.String("log", "", "Log file path")
	levelTag := fs.String("level", "info", "Log level")
	fs.Parse(args)

	scheme, err := param.ParseScheme(*schemeTag)
	if err != nil {
		return err
	}
	shape, err := tensor.ParseShape(*shapeText)
	if err != nil {
		return err
	}
	logger, closeFn, rng, err := setup(*logPath, *levelTag, *seed)
	if err != nil {
		return err
	}
	defer closeLog(os.Stderr, closeFn)

	prm, err := param.Init[float32](scheme, rng, shape, *name)
	if err != nil {
		return err
	}
	mean, std := stats(prm.Value.Data)
	logger.Infof("%s %v scheme=%v mean=%.6f std=%.6f max=%.6f", prm.Name, prm.Value.Shape, scheme, mean, std, mathx.Max(prm.Value.Data...))

	set := param.Set[float32]{}
	if err := set.Add(prm); err != nil {
		return err
	}
	if err := set.Save(*out); err != nil {
		return err
	}
	logger.Infof("saved %v to %s", set.Names(), *out)
	return nil
}

func stats(data []float32) (float64, float64) {
	n := float64(len(data))
	var sum, sq float64
	for _, v := range data {
		sum += float64(v)
		sq += float64(v) * float64(v)
	}
	mean := sum / n
	return mean, mathx.Sqrt(max(sq/n-mean*mean, 0))
}

func runPatch(args []string) error {
	fs := flag.NewFlagSet("patch", flag.ExitOnError)
	size := fs.Int("patch", 4, "Patch size")
	shapeText := fs.String("shape", "1,2,1,8,8", "Frame sequence shape (batch,time,channel,row,col)")
	seed := fs.Uint64("seed", randx.DefaultSeed, "Random seed, 0 for a random one")
	logPath := fs.String("log", "", "Log file path")
	levelTag := fs.String("level", "info", "Log level")
	fs.Parse(args)

	shape, err := tensor.ParseShape(*shapeText)
	if err != nil {
		return err
	}
	logger, closeFn, rng, err := setup(*logPath, *levelTag, *seed)
	if err != nil {
		return err
	}
	defer closeLog(os.Stderr, closeFn)

	x := tensor.NewZeros[float32](shape)
	for i := range x.Data {
		x.Data[i] = float32(randx.Uniform(rng, 0, 1))
	}

	patched, err := patch.Reshape(x, *size)
	if err != nil {
		return err
	}
	back, err := patch.ReshapeBack(patched, *size)
	if err != nil {
		return err
	}
	exact := logx.TimedEval(logger.Infof, fmt.Sprintf("%v -> %v -> %v exact", x.Shape, patched.Shape, back.Shape), func() bool {
		return back.Shape.Equal(x.Shape) && slices.Equal(back.Data, x.Data)
	})
	if !exact {
		return fmt.Errorf("patch round trip did not reconstruct the input")
	}
	return nil
}
