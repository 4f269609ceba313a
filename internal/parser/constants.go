package parser

const (
	// Parameter names understood on //ray::managed and //ray::aot
	ParamName        = "Name"
	ParamConstructor = "Constructor"
)
