// Package common contains plain value types shared by the engine packages: bounding
// boxes, frustum planes, small generic helpers, the Logger used by every subsystem and
// the key codes delivered by the window. They are not interface-wrapped; they express
// commonly used data.
package common
