/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package connctx

func (c *registry[T]) Clean() {
	c.entries.Range(func(key T, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

func (c *registry[T]) Load(key T) (val interface{}, ok bool) {
	return c.entries.Load(key)
}

func (c *registry[T]) Store(key T, val interface{}) {
	if c.Err() != nil {
		c.Clean()
		return
	}
	if val != nil {
		c.entries.Store(key, val)
	}
}

func (c *registry[T]) Delete(key T) {
	if c.Err() != nil {
		c.Clean()
		return
	}
	c.entries.Delete(key)
}

func (c *registry[T]) LoadOrStore(key T, val interface{}) (actual interface{}, loaded bool) {
	if c.Err() != nil {
		c.Clean()
		return nil, false
	}
	return c.entries.LoadOrStore(key, val)
}

func (c *registry[T]) LoadAndDelete(key T) (val interface{}, loaded bool) {
	if c.Err() != nil {
		c.Clean()
		return nil, false
	}
	return c.entries.LoadAndDelete(key)
}

func (c *registry[T]) Walk(fct FuncWalk[T]) {
	c.WalkLimit(fct)
}

// WalkLimit visits every live entry, pruning any key whose value has gone
// nil along the way. With no validKeys it visits everything; otherwise it
// builds a lookup set once up front rather than scanning validKeys per
// entry, since Range can be called against an arbitrarily large registry.
func (c *registry[T]) WalkLimit(fct FuncWalk[T], validKeys ...T) {
	var only map[T]struct{}
	if len(validKeys) > 0 {
		only = make(map[T]struct{}, len(validKeys))
		for _, k := range validKeys {
			only[k] = struct{}{}
		}
	}

	c.entries.Range(func(key T, val any) bool {
		if val == nil {
			c.entries.Delete(key)
			return true
		}
		if only != nil {
			if _, ok := only[key]; !ok {
				return true
			}
		}
		return fct(key, val)
	})
}
