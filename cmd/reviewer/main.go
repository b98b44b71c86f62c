// Package main is the entry point for the Reviewer-X code review service.
//
//	@title						Reviewer-X API
//	@version					1.0
//	@description				AI 代码审查服务 - 基于多模型 LLM、Milvus 向量知识库与自主审查 Agent
//	@termsOfService				https://github.com/kart-io/reviewer-x
//
//	@contact.name				Reviewer-X Team
//	@contact.url				https://github.com/kart-io/reviewer-x
//	@contact.email				support@kart.io
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8100
//	@BasePath					/
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/reviewer-x/cmd/reviewer/app"
)

func main() {
	app.NewApp().Run()
}
