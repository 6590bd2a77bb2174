// Package main реализует multichecker для статического анализа кода проекта.
//
// Запуск:
//
//	go run cmd/staticlint/main.go ./...
//
// Состав: стандартные анализаторы golang.org/x/tools/go/analysis/passes
// (printf, shadow, structtag, unusedresult), все SA-анализаторы
// staticcheck.io и собственный анализатор noosexit, запрещающий
// прямой вызов os.Exit в функции main пакета main.
package main

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/staticcheck"
)

// noOsExitAnalyzer запрещает os.Exit в main: он мешает graceful
// shutdown и корректному освобождению ресурсов
var noOsExitAnalyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "запрещает использование os.Exit в функции main пакета main",
	Run:  runNoOsExit,
}

func runNoOsExit(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "main" || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(n ast.Node) bool {
				// вложенные функции и горутины не считаются прямым вызовом
				if _, ok := n.(*ast.FuncLit); ok {
					return false
				}
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				if ident, ok := sel.X.(*ast.Ident); ok &&
					ident.Name == "os" && sel.Sel.Name == "Exit" {
					pass.Reportf(call.Pos(), "использование os.Exit в функции main запрещено")
				}
				return true
			})
		}
	}

	return nil, nil
}

func main() {
	checks := []*analysis.Analyzer{
		printf.Analyzer,
		shadow.Analyzer,
		structtag.Analyzer,
		unusedresult.Analyzer,
		noOsExitAnalyzer,
	}

	for _, v := range staticcheck.Analyzers {
		checks = append(checks, v.Analyzer)
	}

	multichecker.Main(checks...)
}
