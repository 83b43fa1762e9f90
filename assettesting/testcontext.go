package assettesting

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	fuzz "github.com/google/gofuzz"
)

type TestContext struct {
	Log  logger.Logger
	T    *testing.T
	Fuzz *fuzz.Fuzzer
	Seed int64
}

type TestConfig struct {
	// Seed fixes the generated data so failures reproduce from run to run.
	Seed            int64
	TestLabelPrefix string
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T:    t,
		Seed: cfg.Seed,
	}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)
	c.Fuzz = fuzz.NewWithSeed(cfg.Seed).NilChance(0)
	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// RandomBytes returns n bytes with enough repetition to exercise back
// references: runs, short repeats and noise are interleaved.
func (c *TestContext) RandomBytes(n int) []byte {
	out := make([]byte, 0, n)
	var b byte
	var run uint8
	for len(out) < n {
		c.Fuzz.Fuzz(&run)
		switch run % 3 {
		case 0:
			c.Fuzz.Fuzz(&b)
			for i := 0; i < int(run) && len(out) < n; i++ {
				out = append(out, b)
			}
		case 1:
			if len(out) > 4 {
				start := int(run) % len(out)
				for i := start; i < len(out) && i < start+int(run)%40 && len(out) < n; i++ {
					out = append(out, out[i])
				}
				continue
			}
			fallthrough
		default:
			c.Fuzz.Fuzz(&b)
			out = append(out, b)
		}
	}
	return out
}
