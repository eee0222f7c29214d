package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
)

// scriptCommand 描述一条脚本命令。
type scriptCommand struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, s *session, args []string) error
}

var scriptCommands map[string]scriptCommand

func init() {
	scriptCommands = map[string]scriptCommand{
		"add":      {"add <key> <value>", 2, 2, cmdAdd},
		"update":   {"update <key> <value> [comparison]", 2, 3, cmdUpdate},
		"upsert":   {"upsert <key> <value>", 2, 2, cmdUpsert},
		"remove":   {"remove <key>", 1, 1, cmdRemove},
		"get":      {"get <key>", 1, 1, cmdGet},
		"purge":    {"purge <duration>", 1, 1, cmdPurge},
		"purge-ms": {"purge-ms <unixms>", 1, 1, cmdPurgeMs},
		"clear":    {"clear [capacity|unbounded]", 0, 1, cmdClear},
		"keys":     {"keys", 0, 0, cmdKeys},
		"dump":     {"dump", 0, 0, cmdDump},
		"oldest":   {"oldest", 0, 0, cmdOldest},
		"len":      {"len", 0, 0, cmdLen},
		"capacity": {"capacity", 0, 0, cmdCapacity},
		"stats":    {"stats", 0, 0, cmdStats},
		"check":    {"check", 0, 0, cmdCheck},
		"sleep":    {"sleep <duration>", 1, 1, cmdSleep},
		"help":     {"help", 0, 0, cmdHelp},
	}
}

// execLine 执行一行脚本。空行与 # 开头的注释忽略。
func (s *session) execLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	parts := parseCommandLine(line)
	if len(parts) == 0 {
		return nil
	}
	name, args := parts[0], parts[1:]
	c, ok := scriptCommands[name]
	if !ok {
		return usagef("未知命令 %q，输入 help 查看可用命令", name)
	}
	if len(args) < c.minArgs || len(args) > c.maxArgs {
		return usagef("用法: %s", c.usage)
	}
	return c.run(ctx, s, args)
}

func (s *session) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func cmdAdd(_ context.Context, s *session, args []string) error {
	s.println(result(s.store.TryAdd(args[0], args[1]), "ok", "exists"))
	return nil
}

func cmdUpdate(_ context.Context, s *session, args []string) error {
	var ok bool
	if len(args) == 3 {
		ok = s.store.CompareAndUpdate(args[0], args[1], args[2])
	} else {
		ok = s.store.TryUpdate(args[0], args[1])
	}
	s.println(result(ok, "ok", "rejected"))
	return nil
}

func cmdUpsert(_ context.Context, s *session, args []string) error {
	e := s.store.AddOrUpdate(args[0], args[1])
	s.println("ok", "seq="+strconv.FormatUint(e.Seq(), 10))
	return nil
}

func cmdRemove(_ context.Context, s *session, args []string) error {
	v, ok := s.store.TryRemove(args[0])
	if !ok {
		s.println("missing")
		return nil
	}
	s.println("removed", v)
	return nil
}

func cmdGet(_ context.Context, s *session, args []string) error {
	v, ok := s.store.Get(args[0])
	s.println(result(ok, v, "missing"))
	return nil
}

func cmdPurge(_ context.Context, s *session, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil || d < 0 {
		return usagef("purge: 无效的时长 %q", args[0])
	}
	s.println("purged", s.store.ClearBeforeTime(time.Now().Add(-d)))
	return nil
}

func cmdPurgeMs(_ context.Context, s *session, args []string) error {
	ms, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usagef("purge-ms: 无效的毫秒时间戳 %q", args[0])
	}
	s.println("purged", s.store.ClearBefore(ms))
	return nil
}

func cmdClear(_ context.Context, s *session, args []string) error {
	if len(args) == 0 {
		s.println("cleared", s.store.Clear())
		return nil
	}
	c, err := xtsmap.ParseCapacity(args[0])
	if err != nil {
		return usagef("clear: %v", err)
	}
	before := s.store.Len()
	if err := s.store.ClearWithCapacity(c); err != nil {
		return usagef("clear: %v", err)
	}
	s.println("cleared", before, "capacity="+c.String())
	return nil
}

func cmdKeys(_ context.Context, s *session, _ []string) error {
	s.println(strings.Join(s.store.AddedKeys(), " "))
	return nil
}

func cmdDump(_ context.Context, s *session, _ []string) error {
	for _, m := range s.store.TimestampedKeys() {
		v, _ := s.store.Get(m.Key)
		fmt.Fprintf(s.out, "%s=%s ts=%s seq=%d\n", m.Key, v,
			time.UnixMilli(m.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z"), m.Seq)
	}
	return nil
}

func cmdOldest(_ context.Context, s *session, _ []string) error {
	m, ok := s.store.Oldest()
	s.println(result(ok, m.Key, "empty"))
	return nil
}

func cmdLen(_ context.Context, s *session, _ []string) error {
	s.println(s.store.Len())
	return nil
}

func cmdCapacity(_ context.Context, s *session, _ []string) error {
	s.println(s.store.Capacity().String())
	return nil
}

func cmdStats(ctx context.Context, s *session, _ []string) error {
	return s.printStats(ctx)
}

// cmdCheck 校验一致性，把 InvariantError panic 转为错误。
func cmdCheck(_ context.Context, s *session, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*xtsmap.InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()
	s.store.CheckConsistency()
	s.println("consistent")
	return nil
}

func cmdSleep(ctx context.Context, _ *session, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil || d < 0 {
		return usagef("sleep: 无效的时长 %q", args[0])
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cmdHelp(_ context.Context, s *session, _ []string) error {
	names := make([]string, 0, len(scriptCommands))
	for name := range scriptCommands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s.println(" ", scriptCommands[name].usage)
	}
	return nil
}
