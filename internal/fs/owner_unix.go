//go:build unix

package fs

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
)

func (c *idNames) lookup(info fs.FileInfo) (owner, group string) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}
	uid, gid := uint32(st.Uid), uint32(st.Gid)

	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok = c.users[uid]
	if !ok {
		owner = strconv.FormatUint(uint64(uid), 10)
		if u, err := user.LookupId(owner); err == nil {
			owner = u.Username
		}
		c.users[uid] = owner
	}
	group, ok = c.groups[gid]
	if !ok {
		group = strconv.FormatUint(uint64(gid), 10)
		if g, err := user.LookupGroupId(group); err == nil {
			group = g.Name
		}
		c.groups[gid] = group
	}
	return owner, group
}
