// Package xgate 提供批内并发度控制的计数闸门。
//
// Gate 是一个严格 FIFO 的计数信号量：
//   - Acquire 在无可用许可时挂起调用方，按到达顺序排队
//   - Release 归还许可并唤醒等待最久的获取者
//   - 任意时刻持有未归还许可的操作数不超过 maxPermits
//
// 与限流器的区别：限流器控制准入速率（单位时间内放行多少），
// Gate 控制在途并发（同时有多少操作在执行），二者正交、可叠加使用。
//
// # 使用方式
//
// 推荐通过 Do 保证所有退出路径都归还许可：
//
//	gate, _ := xgate.New(4)
//	err := gate.Do(ctx, func(ctx context.Context) error {
//	    return callService(ctx)
//	})
//
// 手动配对时必须保证 Acquire 成功后恰好一次 Release：
//
//	if err := gate.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer gate.Release()
package xgate
