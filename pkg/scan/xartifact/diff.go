package xartifact

import (
	"fmt"
	"slices"
	"strings"
)

// Delta 两个产物之间的差异，各切片升序
type Delta struct {
	AddedLoggers   []string
	RemovedLoggers []string
	AddedMethods   []string
	RemovedMethods []string
	// ChangedParams 两侧都存在但参数名不同的方法
	ChangedParams []string
}

// Diff 比较 old 与 cur，版本号不参与比较
func Diff(old, cur *Record) Delta {
	var d Delta
	d.AddedLoggers, d.RemovedLoggers = setDiff(old.ModulesWithLogger, cur.ModulesWithLogger)
	d.AddedMethods, d.RemovedMethods = setDiff(old.MethodsWithRequestID, cur.MethodsWithRequestID)
	for _, id := range cur.MethodsWithRequestID {
		before, ok1 := old.MethodParams[id]
		after, ok2 := cur.MethodParams[id]
		if ok1 && ok2 && !slices.Equal(before, after) {
			d.ChangedParams = append(d.ChangedParams, id)
		}
	}
	slices.Sort(d.ChangedParams)
	return d
}

// setDiff 返回 b 相对 a 新增与删除的元素
func setDiff(a, b []string) (added, removed []string) {
	in := func(s []string) map[string]struct{} {
		m := make(map[string]struct{}, len(s))
		for _, v := range s {
			m[v] = struct{}{}
		}
		return m
	}
	am, bm := in(a), in(b)
	for v := range bm {
		if _, ok := am[v]; !ok {
			added = append(added, v)
		}
	}
	for v := range am {
		if _, ok := bm[v]; !ok {
			removed = append(removed, v)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

// Empty 是否无差异
func (d Delta) Empty() bool {
	return len(d.AddedLoggers)+len(d.RemovedLoggers)+len(d.AddedMethods)+
		len(d.RemovedMethods)+len(d.ChangedParams) == 0
}

// String 每行一项："+ logger x"、"- method y"、"~ params z"
func (d Delta) String() string {
	var b strings.Builder
	write := func(sign, kind string, items []string) {
		for _, it := range items {
			fmt.Fprintf(&b, "%s %s %s\n", sign, kind, it)
		}
	}
	write("+", "logger", d.AddedLoggers)
	write("-", "logger", d.RemovedLoggers)
	write("+", "method", d.AddedMethods)
	write("-", "method", d.RemovedMethods)
	write("~", "params", d.ChangedParams)
	return b.String()
}
