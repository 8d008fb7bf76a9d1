package config

// Apply merges the non-nil fields of o into c and records source for each.
// A zero HTTPS or admin port clears the port.
func (c *Config) Apply(o *Overrides, source string) {
	if o == nil {
		return
	}
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}

	setString(c, "stubsFile", &c.StubsFile, o.StubsFile, source)
	if o.HTTPPort != nil {
		c.HTTPPort = *o.HTTPPort
		c.Sources["httpPort"] = source
	}
	if o.HTTPSPort != nil {
		c.HTTPSPort = optionalPort(*o.HTTPSPort)
		c.Sources["httpsPort"] = source
	}
	if o.AdminPort != nil {
		c.AdminPort = optionalPort(*o.AdminPort)
		c.Sources["adminPort"] = source
	}
	setBool(c, "mute", &c.Mute, o.Mute, source)
	setBool(c, "debug", &c.Debug, o.Debug, source)
	setBool(c, "watch", &c.Watch, o.Watch, source)
	setString(c, "backend", &c.Backend, o.Backend, source)
	setString(c, "java", &c.Java, o.Java, source)
	setString(c, "jar", &c.Jar, o.Jar, source)
	setString(c, "image", &c.Image, o.Image, source)
	if o.ReadyTimeout != nil {
		c.ReadyTimeout = *o.ReadyTimeout
		c.Sources["readyTimeout"] = source
	}
	if o.StopTimeout != nil {
		c.StopTimeout = *o.StopTimeout
		c.Sources["stopTimeout"] = source
	}
	setString(c, "stateDir", &c.StateDir, o.StateDir, source)
	setString(c, "session", &c.Session, o.Session, source)
}

func setString(c *Config, field string, dst *string, v *string, source string) {
	if v == nil {
		return
	}
	*dst = *v
	c.Sources[field] = source
}

func setBool(c *Config, field string, dst *bool, v *bool, source string) {
	if v == nil {
		return
	}
	*dst = *v
	c.Sources[field] = source
}

func optionalPort(p int) *int {
	if p == 0 {
		return nil
	}
	return Port(p)
}
