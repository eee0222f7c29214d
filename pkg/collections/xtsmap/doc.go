// Package xtsmap 提供带时间戳的并发字典：按写入/更新时间排序、容量有界、FIFO 淘汰。
//
// 存储由两部分组成：分片并发 map（键 → [Entry]）与顺序索引（按时间戳升序的双向链表）。
// 每个 map 槽位持有其在顺序索引中的节点句柄，删除为 O(1)。
//
// # 核心特性
//
//   - 泛型支持：任意 comparable 键类型、任意值类型
//   - FIFO 淘汰：有界容量满时，TryAdd/AddOrUpdate 在同一临界区内先淘汰最旧条目再插入
//   - 更新即触碰：TryUpdate/CompareAndUpdate/AddOrUpdate 会把键移动到顺序索引尾部
//   - 比较交换：[Store.CompareAndUpdate] 是唯一的 CAS 原语
//   - 时间清理：[Store.ClearBefore] 从头部单向扫描，移除早于截止时间的条目
//   - 变更监听：[WithListener] 在临界区结束后、调用返回前同步通知（xobsmap 基于此实现事件总线）
//
// # 容量
//
// 容量使用 [Capacity] 表示：[Unbounded] 或 [Bounded](n)。Bounded(n) 要求 n > 0，
// 否则 New 与 ClearWithCapacity 返回 [*ArgumentError]（包装 [ErrInvalidCapacity]）。
//
// # 并发模型
//
//   - 一把 sync.Mutex 保护所有会触碰顺序索引的操作，map 与索引的修改在同一临界区内完成
//   - Get/GetEntry/Contains 只获取分片读锁，不与顺序锁竞争
//   - Len 为单次原子读取
//   - 没有后台 goroutine，也没有阻塞 I/O
//
// # 时间戳与排序
//
// 时间戳为 Unix 毫秒，由 [Clock] 提供（默认系统时钟，可用 [WithClock] 注入）。
// 时间戳单调不减：时钟回拨时沿用上一次时间戳。同一毫秒内的多次写入以
// 递增序号 Seq 排序，顺序索引始终按 (Timestamp, Seq) 升序。
//
// # 错误分类
//
//   - 配置错误：[*ArgumentError]，Component() 固定为 "xtsmap"
//   - 预期的否定结果：bool / (V, bool) 返回值，不是错误
//   - 内部不变量被破坏：panic [*InvariantError]，表示实现缺陷，不应被业务处理
//
// # 注意事项
//
//   - 监听器回调在锁外执行，可以安全地调用 Store 的读方法
//   - 种子数据（[WithSeed]）来自 Go map，插入顺序不确定，时间戳基本相同
//   - 键归一化（[WithKeyNormalizer]）后的键会被存入 Entry，读取时返回归一化后的键
package xtsmap
