package xbatch_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/omeyang/flowkit/pkg/concurrency/xbatch"
)

func ExampleProcess() {
	scheduler, err := xbatch.New()
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}

	items := []string{"alpha", "beta", "gamma", "delta"}

	settled, err := xbatch.Process(context.Background(), scheduler, items,
		func(ctx context.Context, item string) (string, error) {
			return strings.ToUpper(item), nil
		},
		xbatch.Config{BatchSize: 2},
		nil,
	)
	if err != nil {
		fmt.Println("执行失败:", err)
		return
	}

	for _, s := range settled {
		fmt.Println(s.Value)
	}
	// Output:
	// ALPHA
	// BETA
	// GAMMA
	// DELTA
}

func ExampleProcess_withProgress() {
	scheduler, err := xbatch.New(xbatch.WithConcurrency(2))
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}

	items := []int{1, 2, 3}

	_, err = xbatch.Process(context.Background(), scheduler, items,
		func(ctx context.Context, n int) (int, error) {
			return n * n, nil
		},
		xbatch.Config{BatchSize: 3},
		func(snap xbatch.ProgressSnapshot) {
			if snap.Stage == xbatch.StageCompleted {
				fmt.Printf("%s %d/%d\n", snap.Stage, snap.Completed, snap.Total)
			}
		},
	)
	if err != nil {
		fmt.Println("执行失败:", err)
		return
	}
	// Output: completed 3/3
}
