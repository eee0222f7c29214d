package xobsmap_test

import (
	"fmt"

	"github.com/omeyang/xtsdict/pkg/collections/xobsmap"
	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
)

func Example() {
	store, err := xobsmap.New[string, int](xtsmap.Bounded(1))
	if err != nil {
		panic(err)
	}
	defer store.Close()

	store.ObserveAdd(func(e xobsmap.AddEvent[string, int]) {
		fmt.Printf("add %s=%d\n", e.Entry.Key(), e.Entry.Value())
	})
	store.ObserveRemove(func(e xobsmap.RemoveEvent[string, int]) {
		fmt.Printf("remove %s\n", e.Entry.Key())
	})
	store.ObserveCountChange(func(n int) {
		fmt.Println("count", n)
	})
	store.ObserveClear(func(n int) {
		fmt.Println("clear", n)
	})

	store.TryAdd("k1", 11)
	store.TryAdd("k2", 12) // 容量为 1，淘汰 k1
	store.Clear()
	store.Clear() // 空存储也会收到 clear 0

	// Output:
	// add k1=11
	// count 1
	// remove k1
	// add k2=12
	// clear 1
	// count 0
	// clear 0
}

func ExampleNewBus() {
	// 单独创建总线并注入到 xtsmap.Store
	bus := xobsmap.NewBus[string, string]()
	defer bus.Close()

	store, err := xtsmap.New(xtsmap.Unbounded(), xtsmap.WithListener[string, string](bus))
	if err != nil {
		panic(err)
	}

	sub := bus.ObserveUpdate(func(e xobsmap.UpdateEvent[string, string]) {
		fmt.Printf("%s: %s -> %s\n", e.New.Key(), e.Old.Value(), e.New.Value())
	})
	store.TryAdd("user", "alice")
	store.TryUpdate("user", "bob")
	sub.Unsubscribe()
	store.TryUpdate("user", "carol")

	// Output:
	// user: alice -> bob
}
