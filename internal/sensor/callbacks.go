package sensor

// Single-slot callback registration. Each kind holds at most one
// handler; re-registering replaces the previous one atomically and nil
// clears the slot. Handlers run in the driver's hardware-event
// context: they must not block and must not call back into the
// Controller.

// OnVsync registers the vertical-sync handler. level carries the sync
// line state.
func (c *Controller) OnVsync(handler func(level uint32)) {
	c.cbMu.Lock()
	c.vsyncHandler = handler
	c.cbMu.Unlock()

	if handler == nil {
		c.drv.SetVsyncCallback(nil)
		return
	}
	c.drv.SetVsyncCallback(c.vsyncTrampoline)
}

// OnFrame registers the frame-ready handler.
func (c *Controller) OnFrame(handler func()) {
	c.cbMu.Lock()
	c.frameHandler = handler
	c.cbMu.Unlock()

	if handler == nil {
		c.drv.SetFrameCallback(nil)
		return
	}
	c.drv.SetFrameCallback(c.frameTrampoline)
}

// vsyncTrampoline bridges the driver's event context to the currently
// registered handler. Reading the slot under the lock keeps a
// concurrent re-registration from racing the invocation.
func (c *Controller) vsyncTrampoline(level uint32) {
	c.cbMu.RLock()
	handler := c.vsyncHandler
	c.cbMu.RUnlock()
	if handler != nil {
		handler(level)
	}
}

func (c *Controller) frameTrampoline() {
	c.cbMu.RLock()
	handler := c.frameHandler
	c.cbMu.RUnlock()
	if handler != nil {
		handler()
	}
}
