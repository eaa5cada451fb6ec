// Package constants provides the control vocabulary shared by the parser,
// validator, and planner: known Priority and Section values.
package constants

// Priorities lists the Debian-policy Priority field values, checked by the
// control field registry when a Priority keyword (not a free string) is
// required.
var Priorities = map[string]bool{
	"required": true,
	"important": true,
	"standard": true,
	"optional": true,
	"extra": true,
}

// Sections lists the well-known Section field values a control file may
// declare; unknown sections are accepted, since
// third-party repositories routinely define their own.
var Sections = map[string]bool{
	"admin": true, "cli-mono": true, "comm": true, "database": true,
	"debug": true, "devel": true, "doc": true, "editors": true,
	"electronics": true, "embedded": true, "fonts": true, "games": true,
	"gnome": true, "gnu-r": true, "gnustep": true, "graphics": true,
	"hamradio": true, "haskell": true, "httpd": true, "interpreters": true,
	"introspection": true, "java": true, "javascript": true, "kde": true,
	"kernel": true, "libdevel": true, "libs": true, "lisp": true,
	"localization": true, "mail": true, "math": true, "metapackages": true,
	"misc": true, "net": true, "news": true, "ocaml": true,
	"oldlibs": true, "otherosfs": true, "perl": true, "php": true,
	"python": true, "ruby": true, "rust": true, "science": true,
	"shells": true, "sound": true, "tasks": true, "tex": true,
	"text": true, "utils": true, "vcs": true, "video": true,
	"web": true, "x11": true, "xfce": true, "zope": true,
}

// MultiArchValues lists the Debian-policy Multi-Arch field values.
var MultiArchValues = map[string]bool{
	"same": true, "foreign": true, "allowed": true, "no": true,
}
