package sqlinline

const complianceTaskColumns = `id, user_id, title, description, category, due_date, recurrence, status, completed_at, reminder_sent_at, next_task_id, created_at, updated_at`

const QInsertComplianceTask = `--sql fa588c85-ba7a-4804-8097-4779b14d4ccd
insert into compliance_tasks (id, user_id, title, description, category, due_date, recurrence, status, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::date, $6::text, $7::text, now(), now())
returning ` + complianceTaskColumns + `;
`

const QSelectComplianceTask = `--sql d00a274f-19b6-4f15-9123-6d342ad9d04a
select ` + complianceTaskColumns + `
from compliance_tasks
where id = $1::uuid and user_id = $2::uuid
limit 1;
`

const QListComplianceTasks = `--sql d32199e5-0a9d-4784-ac6b-06b37bdba764
select ` + complianceTaskColumns + `
from compliance_tasks
where user_id = $1::uuid
  and ($2::text = '' or status = $2::text)
  and ($3::boolean is null or $3::boolean = (status <> 'completed' and due_date < $4::date))
order by due_date asc, created_at asc
limit 500;
`

const QUpdateComplianceTask = `--sql 34263a11-c0c1-44b8-bb00-6439a9d9f487
update compliance_tasks
set title = $3::text,
    description = $4::text,
    category = $5::text,
    due_date = $6::date,
    recurrence = $7::text,
    status = $8::text,
    completed_at = $9::timestamptz,
    reminder_sent_at = case when due_date <> $6::date then null else reminder_sent_at end,
    updated_at = now()
where id = $1::uuid and user_id = $2::uuid
returning ` + complianceTaskColumns + `;
`

const QScheduleNextComplianceTask = `--sql 6b0f6a8e-2c47-4d1e-9a53-0d7f2e8c41b9
with source as (
    select id
    from compliance_tasks
    where id = $1::uuid and user_id = $2::uuid and status = 'completed' and next_task_id is null
    for update
), inserted as (
    insert into compliance_tasks (id, user_id, title, description, category, due_date, recurrence, status, created_at, updated_at)
    select gen_random_uuid(), $2::uuid, $3::text, $4::text, $5::text, $6::date, $7::text, 'pending', now(), now()
    from source
    returning ` + complianceTaskColumns + `
), linked as (
    update compliance_tasks
    set next_task_id = (select id from inserted), updated_at = now()
    where id = (select id from source)
)
select ` + complianceTaskColumns + `
from inserted;
`

const QComplianceSummary = `--sql 93c1d7e4-5b8a-4f06-b2d9-7e4a1c6f0d52
select
    count(*)::bigint,
    count(*) filter (where status = 'completed')::bigint,
    count(*) filter (where status <> 'completed')::bigint,
    count(*) filter (where status <> 'completed' and due_date < $2::date)::bigint,
    count(*) filter (where status <> 'completed' and due_date >= $2::date and due_date <= $3::date)::bigint
from compliance_tasks
where user_id = $1::uuid;
`

const QDeleteComplianceTask = `--sql da3b5145-60ac-48bc-a155-f782e3c44971
delete from compliance_tasks
where id = $1::uuid and user_id = $2::uuid;
`

const QListTasksDueForReminder = `--sql ef5a17f2-5285-4b17-9769-354cd68c24f8
select ` + complianceTaskColumns + `
from compliance_tasks
where status <> 'completed'
  and reminder_sent_at is null
  and due_date <= $1::date
  and due_date >= current_date
order by due_date asc
limit $2::int;
`

const QMarkTaskReminded = `--sql b1055895-09e1-472c-9eaa-a3778562bc53
update compliance_tasks
set reminder_sent_at = $2::timestamptz, updated_at = now()
where id = $1::uuid;
`

const QInsertComplianceDocument = `--sql c99aa197-00a6-48b6-ba05-ffac3aa82a68
insert into compliance_documents (id, task_id, user_id, filename, mime, storage_key, bytes, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::bigint, now())
returning id, task_id, user_id, filename, mime, storage_key, bytes, created_at;
`

const QListComplianceDocuments = `--sql 1d87d4d3-a900-448e-84cf-524661ee1eb9
select id, task_id, user_id, filename, mime, storage_key, bytes, created_at
from compliance_documents
where task_id = $1::uuid and user_id = $2::uuid
order by created_at asc;
`
