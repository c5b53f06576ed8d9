package sqlinline

const notificationColumns = `id, user_id, channel, template, recipient, subject, body, html, status, attempts, last_error, provider_ref, read_at, created_at`

const QInsertNotification = `--sql b2d9fa44-688f-4b50-965c-480c826dc367
insert into notifications (id, user_id, channel, template, recipient, subject, body, html, status, created_at, updated_at)
values (gen_random_uuid(), nullif($1::text, '')::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, now(), now())
returning ` + notificationColumns + `;
`

// QClaimNotifications also reclaims rows stuck in sending by a crashed worker.
const QClaimNotifications = `--sql 1b02ca69-f0f4-4df9-99af-890ce98dc440
with next_batch as (
    select id
    from notifications
    where channel <> 'in_app'
      and (status = 'queued' or (status = 'sending' and updated_at < now() - interval '10 minutes'))
    order by created_at asc
    for update skip locked
    limit $1::int
)
update notifications
set status = 'sending', attempts = attempts + 1, updated_at = now()
where id in (select id from next_batch)
returning ` + notificationColumns + `;
`

const QMarkNotificationSent = `--sql 1b49990f-77bb-4113-bd03-9f52b831b53d
update notifications
set status = 'sent', provider_ref = $2::text, last_error = '', updated_at = now()
where id = $1::uuid;
`

const QMarkNotificationFailed = `--sql eb445c31-7f89-4336-9f1d-211758a44c25
update notifications
set status = case when $3::boolean and attempts < $4::int then 'queued' else 'failed' end,
    last_error = $2::text,
    updated_at = now()
where id = $1::uuid;
`

const QListUserNotifications = `--sql 3ca6eb5c-3f81-4ee5-b5be-72ff00b43dcb
select ` + notificationColumns + `
from notifications
where user_id = $1::uuid and channel = 'in_app'
order by created_at desc
limit $2::int;
`

const QMarkNotificationRead = `--sql 2b5eeddb-76ff-4165-804c-ed10def4cf85
update notifications
set read_at = coalesce(read_at, now()), updated_at = now()
where id = $1::uuid and user_id = $2::uuid and channel = 'in_app';
`

const QMarkAllNotificationsRead = `--sql 1ea241f1-e8ae-4d74-8fbc-7ada64f61bcb
update notifications
set read_at = now(), updated_at = now()
where user_id = $1::uuid and channel = 'in_app' and read_at is null;
`
