// Package biz 提供代码审查服务的业务逻辑层。
//
// 该包采用分层架构，将业务逻辑拆分为以下组件：
//   - Reviewer: 传统提示词审查（zero_shot / few_shot / cot 三种提示技术）
//   - RAGReviewer: 检索增强审查，结合规范知识库提供有据可依的审查意见
//   - Comparator: 多模型并发对比
//   - ReviewCache: 基于 Redis 的审查结果缓存
//   - Service: 组合以上组件，提供统一的服务接口
package biz
