package applicator

// stdlibModules is the set of Python standard-library top-level module
// names, used to filter import discovery results (spec §4.6 step 4).
// Generated from the interpreter's sys.stdlib_module_names list for the
// versions this project targets; trimmed to the modules that commonly
// appear in generated code rather than every obscure internal module.
var stdlibModules = map[string]bool{
	"__future__": true, "abc": true, "argparse": true, "array": true,
	"ast": true, "asyncio": true, "atexit": true, "base64": true,
	"bisect": true, "builtins": true, "calendar": true, "collections": true,
	"configparser": true, "contextlib": true, "copy": true, "csv": true,
	"ctypes": true, "dataclasses": true, "datetime": true, "decimal": true,
	"difflib": true, "dis": true, "enum": true, "errno": true,
	"fnmatch": true, "functools": true, "gc": true, "getpass": true,
	"glob": true, "gzip": true, "hashlib": true, "heapq": true,
	"hmac": true, "html": true, "http": true, "importlib": true,
	"inspect": true, "io": true, "ipaddress": true, "itertools": true,
	"json": true, "keyword": true, "logging": true, "math": true,
	"mimetypes": true, "multiprocessing": true, "numbers": true,
	"operator": true, "os": true, "pathlib": true, "pickle": true,
	"platform": true, "pprint": true, "queue": true, "random": true,
	"re": true, "sched": true, "secrets": true, "select": true,
	"shelve": true, "shlex": true, "shutil": true, "signal": true,
	"site": true, "socket": true, "socketserver": true, "sqlite3": true,
	"ssl": true, "stat": true, "statistics": true, "string": true,
	"struct": true, "subprocess": true, "sys": true, "sysconfig": true,
	"tempfile": true, "textwrap": true, "threading": true, "time": true,
	"timeit": true, "token": true, "tokenize": true, "traceback": true,
	"types": true, "typing": true, "unicodedata": true, "unittest": true,
	"urllib": true, "uuid": true, "warnings": true, "weakref": true,
	"xml": true, "zipfile": true, "zlib": true, "zoneinfo": true,
}

func isStdlib(module string) bool {
	return stdlibModules[module]
}
