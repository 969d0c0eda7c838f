package xbatch

import (
	"fmt"
	"slices"
)

// Stage 批处理作业所处阶段
type Stage string

// 作业阶段常量。
const (
	// StageInitializing 作业已创建，尚未开始执行
	StageInitializing Stage = "initializing"

	// StageRunning 批次执行中
	StageRunning Stage = "running"

	// StageCompleted 全部条目均已尝试并落定
	StageCompleted Stage = "completed"

	// StageCancelled 作业在批次边界被协作式取消
	StageCancelled Stage = "cancelled"

	// StageError 全部条目已尝试，但存在落定为失败的条目
	StageError Stage = "error"
)

// ProgressSnapshot 进度快照
//
// 每次状态变化发出的不可变值。Completed 只统计实际尝试过的条目；
// 因取消而未尝试的条目不计入。Errs 为各条目错误的副本，
// 两个快照间不共享底层数组。
type ProgressSnapshot struct {
	// JobID 本次调度作业的唯一标识
	JobID string

	// Completed 已落定条目数
	Completed int

	// Total 工作项总数
	Total int

	// CurrentLabel 当前批次首个条目的标注
	CurrentLabel string

	// Stage 作业所处阶段
	Stage Stage

	// Errs 截至此刻收集到的条目错误
	Errs []error
}

// Settled 单个条目的落定结果
//
// 成功时 Err 为 nil 且 Value 有效；失败时 Err 非 nil。
// 条目失败不影响兄弟条目，调用方据此实现"N of M 成功"的最终框架。
type Settled[R any] struct {
	// Index 条目在输入序列中的下标
	Index int

	// Label 条目标注，用于进度显示与错误归因
	Label string

	// Value 操作返回值
	Value R

	// Err 条目错误
	Err error
}

// Labeled 可选实现的工作项标注接口
//
// 工作项实现此接口后，其标注会出现在进度快照与落定结果中；
// 未实现时使用按下标生成的默认标注。
type Labeled interface {
	Label() string
}

// labelOf 取工作项标注，未实现 Labeled 时按下标生成
func labelOf(v any, index int) string {
	if l, ok := v.(Labeled); ok {
		return l.Label()
	}
	return fmt.Sprintf("item-%d", index)
}

// snapshotErrs 复制错误列表，保证快照间不共享可变存储
func snapshotErrs(errs []error) []error {
	if len(errs) == 0 {
		return nil
	}
	return slices.Clone(errs)
}
