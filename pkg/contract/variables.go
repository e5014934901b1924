package contract

// Variables: 已知变量名表（计算条件中每个变量对应一个 use_<name> 开关）。
// 只读；调用方显式传入收集器，不作为全局可变状态使用。
var Variables = []string{
	"gampt_ff",
	"hf",
	"hg",
	"hr",
	"hs",
	"qr",
	"qrs",
}

// KnownVariables 返回变量表副本。
func KnownVariables() []string {
	out := make([]string, len(Variables))
	copy(out, Variables)
	return out
}

// SwitchName 返回变量开关键名。
func SwitchName(variable string) string { return "use_" + variable }
