package forecastbridge_test

import (
	"context"
	"fmt"
	"os"

	forecastbridge "github.com/aouyang1/go-forecastbridge"
	"github.com/aouyang1/go-forecastbridge/convert"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/index"
	"github.com/aouyang1/go-forecastbridge/kwargs"
	"github.com/aouyang1/go-forecastbridge/native"
)

func ExampleBridge_Naive() {
	s, err := frame.ReadSeriesFile("frame/testdata/annual.csv")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	b, err := forecastbridge.New(native.New(nil), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	res, err := b.Naive(context.Background(), s, kwargs.Args{"level": []float64{80, 95}})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	tbl := res.Table
	point, _ := tbl.Values("point_fc")
	lower, _ := tbl.Values("lower95")
	upper, _ := tbl.Values("upper95")
	for i, l := range tbl.Index().Outer() {
		fmt.Printf("%d %.2f [%.2f, %.2f]\n", l, point[i], lower[i], upper[i])
	}
}

func ExampleBridge_Decompose() {
	y := make([]float64, 24)
	for i := range y {
		y[i] = 20 + float64(i) + []float64{6, -3, 1, -4}[i%4]
	}
	s, err := convert.SequenceAsSeries(y, index.Start{Outer: 2015, Inner: 1}, 4)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	b, err := forecastbridge.New(native.New(nil), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	res, err := b.Decompose(context.Background(), s, "additive")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(res.Table.DataFrame())
}
