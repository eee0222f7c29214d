// Package xobsmap 在 xtsmap.Store 之上提供可订阅的变更事件。
//
// # 组成
//
//   - Bus：事件总线，实现 xtsmap.Listener，按通道分发 Add/Remove/Update/CountChange/Clear 事件
//   - Store：把 xtsmap.Store 与 Bus 组装在一起的可观察存储
//
// Bus 是显式持有的组件，没有全局状态，可以单独创建后通过 xtsmap.WithListener 注入。
//
// # 投递语义
//
// 事件在存储临界区结束之后、变更方法返回之前同步投递，同一通道内按订阅顺序调用。
// 一次容量淘汰会先投递被淘汰条目的 Remove，再投递新条目的 Add；
// 净条目数不变时不投递 CountChange。Clear 与 ClearBefore 即使没有移除条目
// 也会投递 Clear(0)。
//
// 订阅者 panic 会被恢复、记录日志并计数（见 Bus.Panics），
// 同一事件的其他订阅者照常收到通知，存储状态不受影响。
//
// # 关闭
//
// Close 结束所有订阅：关闭 Done 通道、调用 WithOnComplete 回调并释放订阅者。
// 关闭后发布事件为空操作，新的订阅直接以已完成状态返回。
package xobsmap
