package x11

import (
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// atomCache maintains a mapping of X11 atoms to their names to avoid
// re-requesting them from the X server repeatedly.
type atomCache struct {
	conn *xgb.Conn
	data map[xproto.Atom]string
	mx   sync.RWMutex
}

// Name returns the name of the given atom.
func (c *atomCache) Name(atom xproto.Atom) (string, error) {
	// Try to retrieve the name from the cache.
	c.mx.RLock()
	if name, ok := c.data[atom]; ok {
		c.mx.RUnlock()
		return name, nil
	}
	c.mx.RUnlock()

	// Request the name from the X server.
	reply, err := xproto.GetAtomName(c.conn, atom).Reply()
	if err != nil {
		return "", err
	}
	c.mx.Lock()
	defer c.mx.Unlock()
	c.data[atom] = reply.Name
	return reply.Name, nil
}
